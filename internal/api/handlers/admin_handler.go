package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/ballot/backend/internal/services"
)

// AdminHandler serves the /api/admin routes.
type AdminHandler struct {
	elections *services.ElectionService
	results   *services.ResultsService
}

func NewAdminHandler(elections *services.ElectionService, results *services.ResultsService) *AdminHandler {
	return &AdminHandler{elections: elections, results: results}
}

// ListElections handles GET /api/admin/elections/all
func (h *AdminHandler) ListElections(c *gin.Context) {
	elections, err := h.elections.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"elections": elections})
}

// CreateElection handles POST /api/admin/elections
func (h *AdminHandler) CreateElection(c *gin.Context) {
	var in services.ElectionInput
	if !bindJSON(c, &in) {
		return
	}
	election, err := h.elections.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Election created successfully", "election": election})
}

// UpdateElection handles PUT /api/admin/elections/:id
func (h *AdminHandler) UpdateElection(c *gin.Context) {
	var patch services.Patch
	if !bindJSON(c, &patch) {
		return
	}
	election, err := h.elections.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Election updated successfully", "election": election})
}

// DeleteElection handles DELETE /api/admin/elections/:id
func (h *AdminHandler) DeleteElection(c *gin.Context) {
	if err := h.elections.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Election deleted successfully"})
}

// CreateCandidate handles POST /api/admin/candidates
func (h *AdminHandler) CreateCandidate(c *gin.Context) {
	var in services.CandidateInput
	if !bindJSON(c, &in) {
		return
	}
	candidate, err := h.elections.CreateCandidate(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Candidate created successfully", "candidate": candidate})
}

// UpdateCandidate handles PUT /api/admin/candidates/:id
func (h *AdminHandler) UpdateCandidate(c *gin.Context) {
	var patch services.Patch
	if !bindJSON(c, &patch) {
		return
	}
	candidate, err := h.elections.UpdateCandidate(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Candidate updated successfully", "candidate": candidate})
}

// DeleteCandidate handles DELETE /api/admin/candidates/:id
func (h *AdminHandler) DeleteCandidate(c *gin.Context) {
	if err := h.elections.DeleteCandidate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Candidate deleted successfully"})
}

// ExportResults handles GET /api/admin/elections/:id/export
func (h *AdminHandler) ExportResults(c *gin.Context) {
	export, err := h.results.ExportCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+export.Filename)
	c.Data(http.StatusOK, "text/csv", export.Data)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.results.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
