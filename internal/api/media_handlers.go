package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// uploadImage stores a single product or category image
func (h *Handler) uploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field"})
		return
	}

	result, err := h.media.UploadImage(c.Request.Context(), fileHeader, c.PostForm("folder"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// uploadImages stores several images from one multipart request
func (h *Handler) uploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}

	results, err := h.media.UploadImages(c.Request.Context(), form.File["files"], c.PostForm("folder"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"files": results})
}

// deleteImage removes a stored image by its public URL
func (h *Handler) deleteImage(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.media.DeleteImage(c.Request.Context(), req.URL); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
}
