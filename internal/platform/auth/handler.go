package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"KCMS-gateway/internal/platform/logging"
	"KCMS-gateway/internal/platform/resp"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/auth/login", h.Login)
}

type LoginRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, "invalid request")
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		if errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrAccountDisabled) {
			resp.FailWith(c, http.StatusUnauthorized, "invalid id or password", nil)
			return
		}
		logging.FromContext(c.Request.Context()).WithError(err).Error("login failed")
		resp.FailWith(c, http.StatusInternalServerError, "login failed", nil)
		return
	}

	resp.OK(c, gin.H{"token": token})
}
