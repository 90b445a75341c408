package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/dtapp/campus_core/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"

	ctxUID  = "uid"
	ctxUser = "user"
)

// identity берёт UID, который проставил шлюз аутентификации
func (h *Handler) identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(headerUserID))
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		c.Set(ctxUID, uid)
		c.Next()
	}
}

// loadUser загружает профиль текущего пользователя
func (h *Handler) loadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.users.GetByUID(c.Request.Context(), c.GetString(ctxUID))
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user profile not found"})
			return
		}
		c.Set(ctxUser, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	user, _ := c.MustGet(ctxUser).(*model.User)
	return user
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// writeError переводит ошибки сервисов в HTTP статусы
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrLinkCodeInvalid):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrPaymentNotVerified):
		status, message = http.StatusPaymentRequired, err.Error()
	case errors.Is(err, service.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case service.IsAllocationError(err):
		status, message = http.StatusServiceUnavailable, "could not allocate a print slot, please retry"
	case errors.Is(err, service.ErrRatesNotConfigured), errors.Is(err, service.ErrPaymentsDisabled):
		status, message = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, service.ErrDeliveryFailed):
		status, message = http.StatusBadGateway, service.ErrDeliveryFailed.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("uid", c.GetString(ctxUID)),
			zap.Error(err),
		)
	}

	c.JSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
