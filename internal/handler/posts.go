package handler

import (
	"net/http"

	"github.com/BloggingApp/chirp-service/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) postsGetAll(c *gin.Context) {
	entries, err := h.services.Post.ListRecent(c.Request.Context())
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *Handler) postsCreate(c *gin.Context) {
	userID := h.getUserIDFromRequest(c)

	var input dto.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.CodeBadRequest, err.Error()))
		return
	}

	createdPost, err := h.services.Post.Create(c.Request.Context(), userID, input.Content)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, *createdPost)
}
