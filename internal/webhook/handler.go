package webhook

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = int64(1 << 20)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Stripe godoc
// @Summary Stripe webhook receiver
// @Description Verifies the Stripe-Signature header and credits tokens for paid checkout sessions.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} Result
// @Failure 400 {object} Result
// @Failure 500 {object} Result
// @Router /webhooks/stripe [post]
func (h *Handler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, Result{Message: "Unable to read request body."})
		return
	}

	res := h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	c.JSON(res.Status, res)
}
