package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/middleware"
)

func (s *Server) handleDashboardMetrics(c *gin.Context) {
	metrics, err := s.dashboards.Metrics(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, metrics)
}

func (s *Server) handleDashboardActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, err := s.dashboards.RecentActivity(c.Request.Context(), middleware.GetScope(c), limit)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, items)
}
