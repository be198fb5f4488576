package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// createPaymentSession starts a hosted checkout for one of the
// caller's orders
func (h *Handler) createPaymentSession(c *gin.Context) {
	var req struct {
		OrderID int64 `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.payments.CreatePaymentSession(c.Request.Context(), req.OrderID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// paymentWebhook receives gateway events. The raw body is required for
// signature verification; a bad signature is the only client error.
func (h *Handler) paymentWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable payload"})
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// getPaymentStatus reports payment state for one of the caller's
// orders, looked up by session or intent id
func (h *Handler) getPaymentStatus(c *gin.Context) {
	ref := c.Param("ref")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing payment reference"})
		return
	}

	status, err := h.payments.GetPaymentStatus(c.Request.Context(), ref, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
