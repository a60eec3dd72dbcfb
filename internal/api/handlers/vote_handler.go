package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/ballot/backend/internal/api/middleware"
	"github.com/Wikid82/ballot/backend/internal/services"
)

// Publisher receives fresh tallies after each accepted vote.
type Publisher interface {
	Publish(electionID string, data interface{})
}

type VoteHandler struct {
	voting    *services.VotingService
	results   *services.ResultsService
	publisher Publisher
}

func NewVoteHandler(voting *services.VotingService, results *services.ResultsService, publisher Publisher) *VoteHandler {
	return &VoteHandler{voting: voting, results: results, publisher: publisher}
}

type VoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

// CastVote handles POST /api/elections/:id/vote
func (h *VoteHandler) CastVote(c *gin.Context) {
	var req VoteRequest
	if !bindJSON(c, &req) {
		return
	}

	electionID := c.Param("id")
	receipt, err := h.voting.CastVote(c.Request.Context(), services.VoteRequest{
		UserID:      c.GetString(middleware.UserIDKey),
		ElectionID:  electionID,
		CandidateID: req.CandidateID,
		IsAdmin:     c.GetBool(middleware.IsAdminKey),
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.publish(c, electionID)

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Vote cast successfully",
		"vote_hash": receipt.VoteHash,
	})
}

func (h *VoteHandler) publish(c *gin.Context, electionID string) {
	if h.publisher == nil {
		return
	}
	tally, err := h.results.Tally(c.Request.Context(), electionID)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Warn("could not publish live results")
		return
	}
	h.publisher.Publish(electionID, tally)
}

// HasVoted handles GET /api/elections/:id/has-voted
func (h *VoteHandler) HasVoted(c *gin.Context) {
	voted, err := h.voting.HasVoted(c.Request.Context(), c.GetString(middleware.UserIDKey), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_voted": voted})
}
