package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/ballot/backend/internal/logger"
	"github.com/Wikid82/ballot/backend/internal/metrics"
	"github.com/Wikid82/ballot/backend/internal/models"
	"github.com/Wikid82/ballot/backend/internal/store"
)

const (
	msgCandidateRequired = "Candidate ID required"
	msgAdminCannotVote   = "Administrators are not allowed to vote"
	msgAlreadyVoted      = "You have already voted in this election"
	msgElectionInactive  = "Election not found or not active"
	msgInvalidCandidate  = "Invalid candidate for this election"
)

// VoteRequest is one attempt to cast a vote.
type VoteRequest struct {
	UserID      string
	ElectionID  string
	CandidateID string
	IsAdmin     bool
	IPAddress   string
}

// VoteReceipt is the proof-of-cast returned to the voter.
type VoteReceipt struct {
	VoteID   string    `json:"vote_id"`
	VoteHash string    `json:"vote_hash"`
	VotedAt  time.Time `json:"voted_at"`
}

// HashVote is the tamper-evidence hash stored with each vote and its audit
// entry. It is not a commitment: anyone who knows the inputs can recompute it.
func HashVote(userID, electionID, candidateID string, votedAt time.Time) string {
	sum := sha256.Sum256([]byte(userID + electionID + candidateID + votedAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}

// VerifyVoteHash reports whether a stored vote still matches its hash.
func VerifyVoteHash(v models.Vote) bool {
	return HashVote(v.UserID, v.ElectionID, v.CandidateID, v.VotedAt) == v.VoteHash
}

// VotingService enforces one vote per user per election.
type VotingService struct {
	store store.Store
	now   func() time.Time
}

func NewVotingService(s store.Store) *VotingService {
	return &VotingService{store: s, now: time.Now}
}

func rejectVote(reason string, err error) error {
	metrics.IncVoteRejected(reason)
	return err
}

// CastVote validates and records a vote. Checks run in a fixed order and
// stop at the first failure. The vote and its audit entry are written in
// one transaction; the unique index on (user_id, election_id) catches
// concurrent duplicates that slip past the HasVoted check.
func (s *VotingService) CastVote(ctx context.Context, req VoteRequest) (*VoteReceipt, error) {
	if strings.TrimSpace(req.CandidateID) == "" {
		return nil, rejectVote("missing_candidate", Validation(msgCandidateRequired))
	}
	if req.IsAdmin {
		return nil, rejectVote("admin", Forbidden(msgAdminCannotVote))
	}

	voted, err := s.HasVoted(ctx, req.UserID, req.ElectionID)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, rejectVote("already_voted", Validation(msgAlreadyVoted))
	}

	active, err := s.store.Count(ctx, store.From(models.TableElections).Eq("id", req.ElectionID).Eq("is_active", true))
	if err != nil {
		return nil, Upstream("check election", err)
	}
	if active == 0 {
		return nil, rejectVote("election_inactive", NotFound(msgElectionInactive))
	}

	valid, err := s.store.Count(ctx, store.From(models.TableCandidates).Eq("id", req.CandidateID).Eq("election_id", req.ElectionID))
	if err != nil {
		return nil, Upstream("check candidate", err)
	}
	if valid == 0 {
		return nil, rejectVote("invalid_candidate", Validation(msgInvalidCandidate))
	}

	// Postgres keeps microseconds; truncating keeps the hash recomputable
	// from the stored row on every backend.
	votedAt := s.now().UTC().Truncate(time.Microsecond)
	vote := &models.Vote{
		UserID:      req.UserID,
		ElectionID:  req.ElectionID,
		CandidateID: req.CandidateID,
		VotedAt:     votedAt,
		VoteHash:    HashVote(req.UserID, req.ElectionID, req.CandidateID, votedAt),
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.Insert(ctx, models.TableVotes, vote); err != nil {
			return err
		}
		return tx.Elevated().Insert(ctx, models.TableAuditLogs, &models.AuditLog{
			UserID:      vote.UserID,
			ElectionID:  vote.ElectionID,
			CandidateID: vote.CandidateID,
			VoteHash:    vote.VoteHash,
			Action:      models.ActionVoteCast,
			Timestamp:   s.now().UTC(),
			IPAddress:   req.IPAddress,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, rejectVote("already_voted", Validation(msgAlreadyVoted))
		}
		return nil, Upstream("record vote", err)
	}

	metrics.IncVoteCast()
	logger.WithFields(logrus.Fields{
		"election_id": vote.ElectionID,
		"vote_id":     vote.ID,
	}).Info("vote recorded")

	return &VoteReceipt{VoteID: vote.ID, VoteHash: vote.VoteHash, VotedAt: vote.VotedAt}, nil
}

// HasVoted reports whether userID already has a vote in electionID.
func (s *VotingService) HasVoted(ctx context.Context, userID, electionID string) (bool, error) {
	n, err := s.store.Count(ctx, store.From(models.TableVotes).Eq("user_id", userID).Eq("election_id", electionID))
	if err != nil {
		return false, Upstream("check existing vote", err)
	}
	return n > 0, nil
}
