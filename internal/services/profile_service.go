package services

import (
	"context"
	"time"

	"github.com/Wikid82/ballot/backend/internal/models"
	"github.com/Wikid82/ballot/backend/internal/store"
)

const unknownName = "Unknown"

// Identity is the caller as described by their token claims.
type Identity struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// HistoryEntry is one past vote with names resolved at lookup time.
type HistoryEntry struct {
	VoteID        string    `json:"vote_id"`
	VotedAt       time.Time `json:"voted_at"`
	ElectionID    string    `json:"election_id"`
	ElectionTitle string    `json:"election_title"`
	CandidateID   string    `json:"candidate_id"`
	CandidateName string    `json:"candidate_name"`
}

// Profile is the caller's account summary and voting history.
type Profile struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	Name          string         `json:"name"`
	IsAdmin       bool           `json:"is_admin"`
	VotingHistory []HistoryEntry `json:"voting_history"`
	TotalVotes    int            `json:"total_votes"`
}

// NameLookup resolves a user's display name from the credential store.
type NameLookup interface {
	UserName(ctx context.Context, userID string) string
}

// ProfileService builds user profiles.
type ProfileService struct {
	store store.Store
	names NameLookup
}

func NewProfileService(s store.Store, names NameLookup) *ProfileService {
	return &ProfileService{store: s, names: names}
}

// Profile returns the caller's profile. Elections or candidates deleted
// since the vote was cast show up as "Unknown".
func (s *ProfileService) Profile(ctx context.Context, who Identity) (*Profile, error) {
	var votes []models.Vote
	if err := s.store.Select(ctx, store.From(models.TableVotes).Eq("user_id", who.UserID).Order("voted_at", true), &votes); err != nil {
		return nil, Upstream("load votes", err)
	}

	electionIDs := make([]interface{}, 0, len(votes))
	candidateIDs := make([]interface{}, 0, len(votes))
	for _, v := range votes {
		electionIDs = append(electionIDs, v.ElectionID)
		candidateIDs = append(candidateIDs, v.CandidateID)
	}

	titles := map[string]string{}
	names := map[string]string{}
	if len(votes) > 0 {
		var elections []models.Election
		if err := s.store.Select(ctx, store.From(models.TableElections).Select("id", "title").Where(store.In("id", electionIDs...)), &elections); err != nil {
			return nil, Upstream("load elections", err)
		}
		for _, e := range elections {
			titles[e.ID] = e.Title
		}

		var candidates []models.Candidate
		if err := s.store.Select(ctx, store.From(models.TableCandidates).Select("id", "name").Where(store.In("id", candidateIDs...)), &candidates); err != nil {
			return nil, Upstream("load candidates", err)
		}
		for _, c := range candidates {
			names[c.ID] = c.Name
		}
	}

	history := make([]HistoryEntry, 0, len(votes))
	for _, v := range votes {
		entry := HistoryEntry{
			VoteID:        v.ID,
			VotedAt:       v.VotedAt,
			ElectionID:    v.ElectionID,
			ElectionTitle: unknownName,
			CandidateID:   v.CandidateID,
			CandidateName: unknownName,
		}
		if t, ok := titles[v.ElectionID]; ok {
			entry.ElectionTitle = t
		}
		if n, ok := names[v.CandidateID]; ok {
			entry.CandidateName = n
		}
		history = append(history, entry)
	}

	name := ""
	if s.names != nil {
		name = s.names.UserName(ctx, who.UserID)
	}

	return &Profile{
		ID:            who.UserID,
		Email:         who.Email,
		Name:          name,
		IsAdmin:       who.IsAdmin,
		VotingHistory: history,
		TotalVotes:    len(history),
	}, nil
}
