package api

import (
	"net/http"

	"victoria-kids-api/internal/service"
	"victoria-kids-api/internal/store"

	"github.com/gin-gonic/gin"
)

// subscribeNewsletter signs an email up for the newsletter
func (h *Handler) subscribeNewsletter(c *gin.Context) {
	var req service.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sub, err := h.newsletter.Subscribe(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subscriber": sub})
}

// unsubscribeNewsletter flips a subscriber to unsubscribed
func (h *Handler) unsubscribeNewsletter(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.newsletter.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed"})
}

// listSubscribers returns a filtered admin subscriber listing
func (h *Handler) listSubscribers(c *gin.Context) {
	filter := store.SubscriberFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
	}

	page, err := h.newsletter.ListSubscribers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
