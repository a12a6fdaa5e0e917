package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/chirp-service/internal/dto"
	"github.com/BloggingApp/chirp-service/pkg/utils"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "user-id"
	// sessionCookie is where the identity provider's browser SDK keeps the session token.
	sessionCookie = "__session"
)

func (h *Handler) authMiddleware(c *gin.Context) {
	userID, ok := h.userIDFromToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.CodeUnauthorized, errNotAuthorized.Error()))
		c.Abort()
		return
	}

	c.Set(userIDKey, userID)

	c.Next()
}

func (h *Handler) notRequiredAuthMiddleware(c *gin.Context) {
	if userID, ok := h.userIDFromToken(c); ok {
		c.Set(userIDKey, userID)
	}

	c.Next()
}

func (h *Handler) userIDFromToken(c *gin.Context) (string, bool) {
	accessToken := ""

	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		accessToken = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	} else if cookie, err := c.Cookie(sessionCookie); err == nil {
		accessToken = cookie
	}

	if accessToken == "" {
		return "", false
	}

	claims, err := utils.DecodeJWT(accessToken, h.cfg.AccessSecret)
	if err != nil {
		return "", false
	}

	return claims.Subject, true
}
