package handler

import (
	"errors"
	"net/http"

	"github.com/BloggingApp/chirp-service/internal/dto"
	"github.com/BloggingApp/chirp-service/internal/service"
	"github.com/gin-gonic/gin"
)

var (
	errNotAuthorized = errors.New("user is not authorized")
	errUserNotFound  = errors.New("user not found")
	errInternal      = errors.New("internal server error")
)

// responseFromError maps service errors to an HTTP status and a client-safe body.
func responseFromError(err error) (int, dto.BasicResponse) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, dto.NewErrorResponse(dto.CodeBadRequest, err.Error())
	case errors.Is(err, service.ErrTooManyRequests):
		return http.StatusTooManyRequests, dto.NewErrorResponse(dto.CodeTooManyRequests, service.ErrTooManyRequests.Error())
	case errors.Is(err, service.ErrInconsistentFeed):
		return http.StatusInternalServerError, dto.NewErrorResponse(dto.CodeInternal, service.ErrInconsistentFeed.Error())
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway, dto.NewErrorResponse(dto.CodeBadGateway, service.ErrUpstream.Error())
	default:
		return http.StatusInternalServerError, dto.NewErrorResponse(dto.CodeInternal, errInternal.Error())
	}
}

func (h *Handler) abortWithServiceError(c *gin.Context, err error) {
	status, resp := responseFromError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Sugar().Errorf("%s %s failed: %s", c.Request.Method, c.Request.URL.Path, err.Error())
	}

	c.AbortWithStatusJSON(status, resp)
}
