package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/middleware"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/service"
)

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.org.ListProjects(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, projects)
}

func (s *Server) handleListClients(c *gin.Context) {
	clients, err := s.org.ListClients(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	client, err := s.org.CreateClient(c.Request.Context(), middleware.GetScope(c), req.Name)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, client)
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req struct {
		ClientID int64  `json:"client_id" binding:"required"`
		Name     string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	project, err := s.org.CreateProject(c.Request.Context(), middleware.GetScope(c), req.ClientID, req.Name)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, project)
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.org.ListUsers(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, users)
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required"`
		ClientID *int64 `json:"client_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		apierrors.Error(c, apierrors.CodeValidationFailed)
		return
	}

	user, err := s.org.CreateUser(c.Request.Context(), middleware.GetScope(c), service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     role,
		ClientID: req.ClientID,
	})
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, user)
}

func (s *Server) handleListMemberships(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return
	}

	memberships, err := s.org.ListMemberships(c.Request.Context(), middleware.GetScope(c), projectID)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, memberships)
}

func (s *Server) handleSetMembership(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return
	}

	var req struct {
		UserID        int64  `json:"user_id" binding:"required"`
		Role          string `json:"role" binding:"required"`
		CanRaise      bool   `json:"can_raise"`
		CanBeAssigned bool   `json:"can_be_assigned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	membership := &models.ProjectMembership{
		ProjectID:     projectID,
		UserID:        req.UserID,
		Role:          models.MembershipRole(req.Role),
		CanRaise:      req.CanRaise,
		CanBeAssigned: req.CanBeAssigned,
	}
	if err := s.org.SetMembership(c.Request.Context(), middleware.GetScope(c), membership); err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, membership)
}
