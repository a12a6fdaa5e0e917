package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/chirp-service/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) profilesGetByUsername(c *gin.Context) {
	username := strings.TrimPrefix(strings.TrimSpace(c.Param("username")), "@")

	profile, err := h.services.Profile.GetByUsername(c.Request.Context(), username)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}

	if profile == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.CodeNotFound, errUserNotFound.Error()))
		return
	}

	c.JSON(http.StatusOK, profile)
}
