package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Wikid82/ballot/backend/internal/models"
	"github.com/Wikid82/ballot/backend/internal/store"
)

// ElectionInput is the body of an election create request.
type ElectionInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	IsActive    *bool   `json:"is_active"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

// CandidateInput is the body of a candidate create request.
type CandidateInput struct {
	ElectionID  string `json:"election_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// Patch is a partial update as decoded from a JSON object. Only keys the
// target accepts are applied; anything else is ignored.
type Patch map[string]json.RawMessage

type fieldKind int

const (
	fieldString fieldKind = iota
	fieldBool
	fieldTime
)

var (
	electionFields  = map[string]fieldKind{"title": fieldString, "description": fieldString, "is_active": fieldBool, "start_date": fieldTime, "end_date": fieldTime}
	candidateFields = map[string]fieldKind{"name": fieldString, "description": fieldString, "image_url": fieldString}
)

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts RFC 3339 as well as the shorter forms HTML date inputs send.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func optionalDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil, Validation(fmt.Sprintf("Invalid %s", field))
	}
	return &t, nil
}

// columns turns a Patch into a column map, validating value types.
func (p Patch) columns(allowed map[string]fieldKind) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(p))
	for key, raw := range p {
		kind, ok := allowed[key]
		if !ok {
			continue
		}
		switch kind {
		case fieldString:
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, Validation(fmt.Sprintf("Invalid %s", key))
			}
			out[key] = v
		case fieldBool:
			var v *bool
			if err := json.Unmarshal(raw, &v); err != nil || v == nil {
				return nil, Validation(fmt.Sprintf("Invalid %s", key))
			}
			out[key] = *v
		case fieldTime:
			var v *string
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, Validation(fmt.Sprintf("Invalid %s", key))
			}
			t, err := optionalDate(v, key)
			if err != nil {
				return nil, err
			}
			out[key] = t
		}
	}
	return out, nil
}

// ElectionService is the admin CRUD surface for elections and candidates.
type ElectionService struct {
	store  store.Store
	notify *NotificationService
}

func NewElectionService(s store.Store, notify *NotificationService) *ElectionService {
	return &ElectionService{store: s, notify: notify}
}

// ListActive returns elections open for voting.
func (s *ElectionService) ListActive(ctx context.Context) ([]models.Election, error) {
	elections := []models.Election{}
	if err := s.store.Select(ctx, store.From(models.TableElections).Eq("is_active", true), &elections); err != nil {
		return nil, Upstream("list active elections", err)
	}
	return elections, nil
}

// ListAll returns every election, newest first.
func (s *ElectionService) ListAll(ctx context.Context) ([]models.Election, error) {
	elections := []models.Election{}
	if err := s.store.Select(ctx, store.From(models.TableElections).Order("created_at", true), &elections); err != nil {
		return nil, Upstream("list elections", err)
	}
	return elections, nil
}

// Get returns one election or a NotFound error.
func (s *ElectionService) Get(ctx context.Context, id string) (*models.Election, error) {
	var rows []models.Election
	if err := s.store.Select(ctx, store.From(models.TableElections).Eq("id", id).Limit(1), &rows); err != nil {
		return nil, Upstream("get election", err)
	}
	if len(rows) == 0 {
		return nil, NotFound("Election not found")
	}
	return &rows[0], nil
}

// Create stores a new election. Elections are active unless the input says otherwise.
func (s *ElectionService) Create(ctx context.Context, in ElectionInput) (*models.Election, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, Validation("Title is required")
	}
	start, err := optionalDate(in.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := optionalDate(in.EndDate, "end_date")
	if err != nil {
		return nil, err
	}

	election := &models.Election{
		Title:       in.Title,
		Description: in.Description,
		IsActive:    in.IsActive == nil || *in.IsActive,
		StartDate:   start,
		EndDate:     end,
	}
	if err := s.store.Insert(ctx, models.TableElections, election); err != nil {
		return nil, Upstream("create election", err)
	}

	s.notify.ElectionEvent("created", election.Title)
	return election, nil
}

// Update applies a partial patch and returns the stored election.
func (s *ElectionService) Update(ctx context.Context, id string, patch Patch) (*models.Election, error) {
	cols, err := patch.columns(electionFields)
	if err != nil {
		return nil, err
	}
	if title, ok := cols["title"].(string); ok && strings.TrimSpace(title) == "" {
		return nil, Validation("Title is required")
	}

	n, err := s.store.Update(ctx, store.From(models.TableElections).Eq("id", id), cols)
	if err != nil {
		return nil, Upstream("update election", err)
	}
	if n == 0 {
		return nil, NotFound("Election not found")
	}

	election, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notify.ElectionEvent("updated", election.Title)
	return election, nil
}

// Delete removes an election. Its candidates and votes are left in place.
func (s *ElectionService) Delete(ctx context.Context, id string) error {
	n, err := s.store.Delete(ctx, store.From(models.TableElections).Eq("id", id))
	if err != nil {
		return Upstream("delete election", err)
	}
	if n > 0 {
		s.notify.ElectionEvent("deleted", id)
	}
	return nil
}

// ListCandidates returns the candidates of an election in storage order.
func (s *ElectionService) ListCandidates(ctx context.Context, electionID string) ([]models.Candidate, error) {
	candidates := []models.Candidate{}
	if err := s.store.Select(ctx, store.From(models.TableCandidates).Eq("election_id", electionID), &candidates); err != nil {
		return nil, Upstream("list candidates", err)
	}
	return candidates, nil
}

// CreateCandidate stores a candidate. The election is not checked here; a
// dangling election_id just makes the candidate unvotable.
func (s *ElectionService) CreateCandidate(ctx context.Context, in CandidateInput) (*models.Candidate, error) {
	if strings.TrimSpace(in.ElectionID) == "" || strings.TrimSpace(in.Name) == "" {
		return nil, Validation("Election ID and name are required")
	}
	candidate := &models.Candidate{
		ElectionID:  in.ElectionID,
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	if err := s.store.Insert(ctx, models.TableCandidates, candidate); err != nil {
		return nil, Upstream("create candidate", err)
	}
	return candidate, nil
}

// UpdateCandidate applies a partial patch and returns the stored candidate.
func (s *ElectionService) UpdateCandidate(ctx context.Context, id string, patch Patch) (*models.Candidate, error) {
	cols, err := patch.columns(candidateFields)
	if err != nil {
		return nil, err
	}
	if name, ok := cols["name"].(string); ok && strings.TrimSpace(name) == "" {
		return nil, Validation("Name is required")
	}

	q := store.From(models.TableCandidates).Eq("id", id)
	n, err := s.store.Update(ctx, q, cols)
	if err != nil {
		return nil, Upstream("update candidate", err)
	}
	if n == 0 {
		return nil, NotFound("Candidate not found")
	}

	var rows []models.Candidate
	if err := s.store.Select(ctx, q.Limit(1), &rows); err != nil {
		return nil, Upstream("get candidate", err)
	}
	if len(rows) == 0 {
		return nil, NotFound("Candidate not found")
	}
	return &rows[0], nil
}

// DeleteCandidate removes a candidate. Votes referencing it are kept.
func (s *ElectionService) DeleteCandidate(ctx context.Context, id string) error {
	if _, err := s.store.Delete(ctx, store.From(models.TableCandidates).Eq("id", id)); err != nil {
		return Upstream("delete candidate", err)
	}
	return nil
}
