package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type runGenerationRequest struct {
	Reference time.Time `json:"reference"`
}

// RunGeneration triggers a generation pass on demand. A reference date in
// the body replays the run as of that day; omitted means now.
func (s *Server) RunGeneration(c *gin.Context) {
	var req runGenerationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
			return
		}
	}

	result, err := s.generationSvc.RunOnce(c.Request.Context(), req.Reference)
	if err != nil {
		// Partial failure still reports the per-schedule outcomes.
		c.JSON(http.StatusMultiStatus, gin.H{"data": result, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
