// Package api exposes the REST surface. Handlers translate HTTP to service
// calls and never contain authorization logic beyond resolving the caller's
// scope; anything row-level lives in the scope package.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deskflow-io/deskflow/internal/auth"
	"github.com/deskflow-io/deskflow/internal/middleware"
	"github.com/deskflow-io/deskflow/internal/service"
)

// Server bundles the services behind the HTTP handlers.
type Server struct {
	auth       *service.AuthService
	tickets    *service.TicketService
	comments   *service.CommentService
	dashboards *service.DashboardService
	org        *service.OrgService
	jwt        *auth.JWTManager
}

// NewServer creates the HTTP server facade.
func NewServer(authSvc *service.AuthService, tickets *service.TicketService, comments *service.CommentService,
	dashboards *service.DashboardService, org *service.OrgService, jwt *auth.JWTManager) *Server {
	return &Server{
		auth:       authSvc,
		tickets:    tickets,
		comments:   comments,
		dashboards: dashboards,
		org:        org,
		jwt:        jwt,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", middleware.RateLimitByIP(60), s.handleLogin)

	authed := v1.Group("")
	authed.Use(middleware.Auth(s.jwt), middleware.RateLimit())
	{
		authed.GET("/auth/me", s.handleMe)

		authed.GET("/tickets", s.handleListTickets)
		authed.POST("/tickets", s.handleCreateTicket)
		authed.GET("/tickets/:id", s.handleGetTicket)
		authed.PATCH("/tickets/:id", s.handleUpdateTicket)
		authed.DELETE("/tickets/:id", s.handleDeleteTicket)
		authed.GET("/tickets/:id/events", s.handleListTicketEvents)

		authed.GET("/tickets/:id/comments", s.handleListComments)
		authed.POST("/tickets/:id/comments", s.handleAddComment)

		authed.GET("/dashboard/metrics", s.handleDashboardMetrics)
		authed.GET("/dashboard/activity", s.handleDashboardActivity)

		authed.GET("/projects", s.handleListProjects)
		authed.GET("/statuses", s.handleListStatuses)
		authed.GET("/priorities", s.handleListPriorities)

		admin := authed.Group("/admin")
		{
			admin.GET("/clients", s.handleListClients)
			admin.POST("/clients", s.handleCreateClient)
			admin.POST("/projects", s.handleCreateProject)
			admin.GET("/projects/:id/memberships", s.handleListMemberships)
			admin.PUT("/projects/:id/memberships", s.handleSetMembership)
			admin.GET("/users", s.handleListUsers)
			admin.POST("/users", s.handleCreateUser)
		}
	}

	return r
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
