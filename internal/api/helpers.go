package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deskflow-io/deskflow/internal/models"
)

func sendSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func sendPaginated(c *gin.Context, data any, total int, page models.Page) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"total":   total,
		"limit":   page.Limit,
		"offset":  page.Offset,
	})
}

// parseID reads a positive int64 path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parsePage reads limit/offset query parameters. Out-of-range values are
// clamped, never rejected.
func parsePage(c *gin.Context) models.Page {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return models.Page{Limit: limit, Offset: offset}.Clamp()
}

// parseTicketFilter reads the optional ticket listing filters.
func parseTicketFilter(c *gin.Context) models.TicketFilter {
	var f models.TicketFilter
	f.ProjectID, _ = strconv.ParseInt(c.Query("project_id"), 10, 64)
	f.StatusID, _ = strconv.ParseInt(c.Query("status_id"), 10, 64)
	f.PriorityID, _ = strconv.ParseInt(c.Query("priority_id"), 10, 64)
	f.AssignedToUserID, _ = strconv.ParseInt(c.Query("assigned_to"), 10, 64)
	f.Search = c.Query("q")
	if v := c.Query("created_from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.CreatedFrom = ts
		}
	}
	if v := c.Query("created_to"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.CreatedTo = ts
		}
	}
	return f
}
