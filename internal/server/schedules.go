package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ledgerline/internal/recurrence"
)

type createScheduleRequest struct {
	DocumentKind   string     `json:"document_kind"`
	BaseDocumentID string     `json:"base_document_id"`
	Frequency      string     `json:"frequency"`
	StartOn        time.Time  `json:"start_on"`
	EndsOn         *time.Time `json:"ends_on"`
	NeverExpires   bool       `json:"never_expires"`
}

func (s *Server) ListSchedules(c *gin.Context) {
	schedules, err := s.scheduleSvc.List(c.Request.Context(), ownerFromContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": schedules})
}

func (s *Server) CreateSchedule(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	baseID, err := snowflake.ParseString(strings.TrimSpace(req.BaseDocumentID))
	if err != nil {
		AbortWithError(c, newValidationError("base_document_id", "invalid_id", "invalid id"))
		return
	}

	schedule, err := s.scheduleSvc.Create(c.Request.Context(), recurrence.CreateScheduleRequest{
		OwnerID:        ownerFromContext(c),
		DocumentKind:   req.DocumentKind,
		BaseDocumentID: baseID,
		Frequency:      req.Frequency,
		StartOn:        req.StartOn,
		EndsOn:         req.EndsOn,
		NeverExpires:   req.NeverExpires,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": schedule})
}

func (s *Server) GetScheduleByID(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	schedule, err := s.scheduleSvc.Get(c.Request.Context(), ownerFromContext(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": schedule})
}

func (s *Server) DeleteSchedule(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.scheduleSvc.Delete(c.Request.Context(), ownerFromContext(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
