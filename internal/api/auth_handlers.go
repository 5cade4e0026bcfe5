package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/middleware"
)

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	user, token, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) handleMe(c *gin.Context) {
	id := middleware.GetIdentity(c)
	user, err := s.auth.Me(c.Request.Context(), id.UserID)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, user)
}
