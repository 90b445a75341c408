package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type profileRequest struct {
	RollNumber string `json:"rollNumber" binding:"required"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// GetMe handles GET /api/users/me
func (h *Handler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// CompleteProfile handles PUT /api/users/me/profile
func (h *Handler) CompleteProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	email := req.Email
	if email == "" {
		email = c.GetHeader(headerUserEmail)
	}

	user, err := h.users.CompleteProfile(c.Request.Context(), c.GetString(ctxUID), email, req.RollNumber, req.Phone)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// RegisterToken handles POST /api/users/me/tokens
func (h *Handler) RegisterToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.users.RegisterToken(c.Request.Context(), currentUser(c).UID, req.Token); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveToken handles DELETE /api/users/me/tokens
func (h *Handler) RemoveToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.users.RemoveToken(c.Request.Context(), currentUser(c).UID, req.Token); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateTelegramLink handles POST /api/users/me/telegram-link
func (h *Handler) CreateTelegramLink(c *gin.Context) {
	code, err := h.users.CreateTelegramLinkCode(c.Request.Context(), currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":      code.Code,
		"expiresAt": code.ExpiresAt,
		"command":   "/link " + code.Code,
	})
}

// SendTestNotification handles POST /api/notifications/test
func (h *Handler) SendTestNotification(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	report, err := h.users.SendTestNotification(c.Request.Context(), currentUser(c), req.Token)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
