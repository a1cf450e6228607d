package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"centreconnect/internal/api"
	"centreconnect/internal/auth"
	"centreconnect/internal/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo       Repository
	reconciler *Reconciler
	packages   []config.TokenPackage
}

func NewHandler(repo Repository, reconciler *Reconciler, packages []config.TokenPackage) *Handler {
	return &Handler{
		repo:       repo,
		reconciler: reconciler,
		packages:   packages,
	}
}

// GetBalance godoc
// @Summary Token balance
// @Tags tokens
// @Produce json
// @Security BearerAuth
// @Success 200 {object} BalanceResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /tokens/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.RespondError(c, api.NewError(api.CodeUnauthenticated, "user not authenticated"))
		return
	}

	balance, err := h.repo.GetBalance(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			api.RespondError(c, api.NewError(api.CodeNotFound, "User profile not found."))
			return
		}
		api.RespondError(c, api.Wrap(api.CodeInternal, "failed to load balance", err))
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{TokenBalance: balance})
}

// ListTransactions godoc
// @Summary Token transaction history, newest first
// @Tags tokens
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} Transaction
// @Router /tokens/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.RespondError(c, api.NewError(api.CodeUnauthenticated, "user not authenticated"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		api.RespondError(c, api.Wrap(api.CodeInternal, "failed to load transactions", err))
		return
	}

	c.JSON(http.StatusOK, txs)
}

// Deduct godoc
// @Summary Spend tokens to reveal a jobseeker profile
// @Tags tokens
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeductRequest true "Deduction"
// @Success 200 {object} DeductResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 412 {object} api.ErrorResponse
// @Router /tokens/deduct [post]
func (h *Handler) Deduct(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.RespondError(c, api.NewError(api.CodeUnauthenticated, "Authentication required. You must be logged in to deduct tokens."))
		return
	}

	var req DeductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondError(c, api.NewError(api.CodeInvalidArgument,
			"Invalid request: A positive 'tokensToDeduct' number and a 'seekerId' must be provided."))
		return
	}

	res, err := h.reconciler.Deduct(c.Request.Context(), Deduction{
		AccountID: userID,
		Tokens:    req.TokensToDeduct,
		SeekerID:  req.SeekerID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientTokens):
			api.RespondError(c, api.NewError(api.CodeFailedPrecondition, "Insufficient tokens to perform this action."))
		case errors.Is(err, ErrAccountNotFound):
			api.RespondError(c, api.NewError(api.CodeNotFound, "User profile not found."))
		default:
			api.RespondError(c, api.Wrap(api.CodeInternal, "Failed to deduct tokens.", err))
		}
		return
	}

	c.JSON(http.StatusOK, DeductResponse{
		Success:      true,
		Message:      "Tokens deducted successfully.",
		TokenBalance: res.Balance,
	})
}

// ListPackages godoc
// @Summary Purchasable token packages
// @Tags tokens
// @Produce json
// @Success 200 {array} config.TokenPackage
// @Router /tokens/packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	c.JSON(http.StatusOK, h.packages)
}
