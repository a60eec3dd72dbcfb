package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/ballot/backend/internal/api/middleware"
	"github.com/Wikid82/ballot/backend/internal/live"
	"github.com/Wikid82/ballot/backend/internal/services"
)

// ElectionHandler serves the public election, candidate and results routes.
type ElectionHandler struct {
	elections *services.ElectionService
	results   *services.ResultsService
	hub       *live.Hub
}

func NewElectionHandler(elections *services.ElectionService, results *services.ResultsService, hub *live.Hub) *ElectionHandler {
	return &ElectionHandler{elections: elections, results: results, hub: hub}
}

// ListActive handles GET /api/elections
func (h *ElectionHandler) ListActive(c *gin.Context) {
	elections, err := h.elections.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"elections": elections})
}

// ListCandidates handles GET /api/elections/:id/candidates
func (h *ElectionHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.elections.ListCandidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// Results handles GET /api/elections/:id/results
func (h *ElectionHandler) Results(c *gin.Context) {
	tally, err := h.results.Tally(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tally)
}

// LiveResults handles GET /api/elections/:id/results/live. The current
// tally is sent on connect, then again after every accepted vote.
func (h *ElectionHandler) LiveResults(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.elections.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	tally, err := h.results.Tally(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.hub.Serve(c.Writer, c.Request, id, tally); err != nil {
		// the upgrader has already answered the client
		middleware.GetRequestLogger(c).WithError(err).Debug("live results upgrade failed")
	}
}
