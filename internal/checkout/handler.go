package checkout

import (
	"net/http"

	"centreconnect/internal/api"
	"centreconnect/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateSession godoc
// @Summary Start a Stripe checkout for a token package
// @Description Business accounts only. Returns the Stripe checkout session id.
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSessionRequest true "Token package price"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 500 {object} api.ErrorResponse
// @Router /checkout/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondError(c, api.NewError(api.CodeInvalidArgument, msgInvalidPrice))
		return
	}

	// A missing principal is reported by the service after the
	// configuration check.
	principal, _ := auth.GetPrincipal(c)

	resp, err := h.service.CreateCheckoutSession(c.Request.Context(), principal, req.PriceID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
