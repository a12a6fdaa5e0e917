package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(h.pingers))
	for name, pinger := range h.pingers {
		if err := pinger.Ping(ctx); err != nil {
			h.logger.Sugar().Errorf("health check %s failed: %s", name, err.Error())
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}

	c.JSON(status, gin.H{"ok": status == http.StatusOK, "checks": checks})
}
