package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskflow-io/deskflow/internal/apierrors"
)

func (s *Server) handleListStatuses(c *gin.Context) {
	statuses, err := s.org.ListStatuses(c.Request.Context())
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, statuses)
}

func (s *Server) handleListPriorities(c *gin.Context) {
	priorities, err := s.org.ListPriorities(c.Request.Context())
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, priorities)
}
