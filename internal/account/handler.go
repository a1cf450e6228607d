package account

import (
	"errors"
	"net/http"

	"centreconnect/internal/api"
	"centreconnect/internal/auth"
	"centreconnect/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register godoc
// @Summary      Register account
// @Description  Creates a business or jobseeker account and returns access & refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "Account data"
// @Success      201      {object}  LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondError(c, api.Wrap(api.CodeInvalidArgument, "Invalid registration data.", err))
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, ErrEmailExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
		return
	case errors.Is(err, ErrInvalidRole):
		api.RespondError(c, api.NewError(api.CodeInvalidArgument, err.Error()))
		return
	case err != nil:
		logger.WithError(err).Error("account registration failed")
		api.RespondError(c, api.Wrap(api.CodeInternal, "Failed to create account.", err))
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Credentials"
// @Success      200      {object}  LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondError(c, api.Wrap(api.CodeInvalidArgument, "Email and password are required.", err))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, api.NewError(api.CodeUnauthenticated, "Invalid email or password"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RefreshRequest  true  "Refresh token"
// @Success      200      {object}  LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondError(c, api.NewError(api.CodeInvalidArgument, "refresh_token is required"))
		return
	}

	resp, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		api.RespondError(c, api.NewError(api.CodeUnauthenticated, "invalid or expired refresh token"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetMe godoc
// @Summary      Current account
// @Tags         account
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Account
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.RespondError(c, api.NewError(api.CodeUnauthenticated, "User not authenticated"))
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), userID)
	if errors.Is(err, ErrAccountNotFound) {
		api.RespondError(c, api.NewError(api.CodeNotFound, "Account not found"))
		return
	}
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}
