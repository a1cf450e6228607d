package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"centreconnect/internal/account"
	"centreconnect/internal/auth"
	"centreconnect/internal/checkout"
	"centreconnect/internal/config"
	"centreconnect/internal/email"
	"centreconnect/internal/ledger"
	"centreconnect/internal/logger"
	"centreconnect/internal/payment"
	"centreconnect/internal/sweeper"
	"centreconnect/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router  *gin.Engine
	http    *http.Server
	db      *sqlx.DB
	config  *config.Config
	sweeper *sweeper.Sweeper
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service, gateway payment.Gateway) *Server {
	accounts := account.NewRepository(db)
	tokens := ledger.NewRepository(db)
	sessions := checkout.NewStore(db)

	reconciler := ledger.NewReconciler(tokens, emailService)
	webhookService := webhook.NewService(gateway, reconciler, sessions, cfg.WebhookProcessingTimeout)
	checkoutService := checkout.NewService(gateway, accounts, sessions, cfg.AppURL, cfg.PriceIDs())

	s := &Server{
		db:      db,
		config:  cfg,
		sweeper: sweeper.New(sessions, gateway, webhookService, cfg.ReconcileSchedule),
	}
	s.router = NewRouter(cfg, db, Handlers{
		Account:  account.NewHandler(account.NewService(accounts, cfg.JWTSecret)),
		Ledger:   ledger.NewHandler(tokens, reconciler, cfg.TokenPackages),
		Checkout: checkout.NewHandler(checkoutService),
		Webhook:  webhook.NewHandler(webhookService),
		Roles:    accounts,
	})
	return s
}

type Handlers struct {
	Account  *account.Handler
	Ledger   *ledger.Handler
	Checkout *checkout.Handler
	Webhook  *webhook.Handler
	Roles    auth.RoleLookup
}

func NewRouter(cfg *config.Config, pinger Pinger, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), TraceIDMiddleware(), RequestLoggingMiddleware(), MetricsMiddleware(), corsMiddleware())

	router.GET("/health", Health(pinger))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	// Stripe authenticates itself with the signature header, so the
	// webhook sits outside the rate limiter and the auth middleware.
	router.POST("/webhooks/stripe", h.Webhook.Stripe)

	limited := router.Group("/")
	limited.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	public := limited.Group("/auth")
	{
		public.POST("/register", h.Account.Register)
		public.POST("/login", h.Account.Login)
		public.POST("/refresh", h.Account.RefreshToken)
	}

	limited.GET("/tokens/packages", h.Ledger.ListPackages)
	limited.POST("/checkout/sessions", auth.OptionalAuthMiddleware(cfg.JWTSecret), h.Checkout.CreateSession)

	protected := limited.Group("/")
	protected.Use(auth.AuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/me", h.Account.GetMe)
		protected.GET("/tokens/balance", h.Ledger.GetBalance)
		protected.GET("/tokens/transactions", h.Ledger.ListTransactions)
		protected.POST("/tokens/deduct", auth.RequireRole(h.Roles, string(account.RoleBusiness)), h.Ledger.Deduct)
	}

	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the checkout sweeper and blocks serving HTTP until Shutdown.
func (s *Server) Start(ctx context.Context, port string) error {
	if err := s.sweeper.Start(ctx); err != nil {
		return err
	}

	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("HTTP server listening", "port", port)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.sweeper.Stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, Stripe-Signature")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
