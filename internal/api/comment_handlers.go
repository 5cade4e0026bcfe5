package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/middleware"
	"github.com/deskflow-io/deskflow/internal/models"
)

func (s *Server) handleListComments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return
	}

	comments, err := s.comments.List(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, comments)
}

func (s *Server) handleAddComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return
	}

	var req struct {
		Body       string `json:"body" binding:"required"`
		Visibility string `json:"visibility"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	comment, err := s.comments.Add(c.Request.Context(), middleware.GetScope(c), id,
		models.CommentVisibility(req.Visibility), req.Body)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, comment)
}
