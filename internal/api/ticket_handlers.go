package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskflow-io/deskflow/internal/apierrors"
	"github.com/deskflow-io/deskflow/internal/middleware"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/service"
)

func (s *Server) handleListTickets(c *gin.Context) {
	sc := middleware.GetScope(c)
	page := parsePage(c)

	tickets, total, err := s.tickets.List(c.Request.Context(), sc, parseTicketFilter(c), page)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendPaginated(c, tickets, total, page)
}

func (s *Server) handleGetTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return
	}

	ticket, err := s.tickets.Get(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, ticket)
}

func (s *Server) handleCreateTicket(c *gin.Context) {
	var req struct {
		ProjectID        int64  `json:"project_id" binding:"required"`
		Title            string `json:"title" binding:"required"`
		Description      string `json:"description"`
		StatusID         int64  `json:"status_id" binding:"required"`
		PriorityID       int64  `json:"priority_id" binding:"required"`
		AssignedToUserID *int64 `json:"assigned_to_user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	ticket, err := s.tickets.Create(c.Request.Context(), middleware.GetScope(c), service.CreateTicketInput{
		ProjectID:        req.ProjectID,
		Title:            req.Title,
		Description:      req.Description,
		StatusID:         req.StatusID,
		PriorityID:       req.PriorityID,
		AssignedToUserID: req.AssignedToUserID,
	})
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, ticket)
}

func (s *Server) handleUpdateTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return
	}

	var patch models.TicketPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	ticket, err := s.tickets.Update(c.Request.Context(), middleware.GetScope(c), id, patch)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, ticket)
}

func (s *Server) handleDeleteTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return
	}

	if err := s.tickets.Delete(c.Request.Context(), middleware.GetScope(c), id); err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListTicketEvents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		apierrors.Error(c, apierrors.CodeInvalidID)
		return
	}

	events, err := s.tickets.Events(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		apierrors.ErrorFrom(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, events)
}
