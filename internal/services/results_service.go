package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/Wikid82/ballot/backend/internal/models"
	"github.com/Wikid82/ballot/backend/internal/store"
)

// CandidateResult is one row of a tally.
type CandidateResult struct {
	CandidateID   string  `json:"candidate_id"`
	CandidateName string  `json:"candidate_name"`
	VoteCount     int     `json:"vote_count"`
	Percentage    float64 `json:"percentage"`
}

// Tally is the result of an election, candidates ordered by votes descending.
type Tally struct {
	ElectionID string            `json:"election_id"`
	TotalVotes int               `json:"total_votes"`
	Results    []CandidateResult `json:"results"`
}

// Export is a rendered CSV results file.
type Export struct {
	Filename string
	Data     []byte
}

// Stats are the admin dashboard aggregates. TotalUsers counts distinct
// voters, so registered users who never voted are not included.
type Stats struct {
	TotalElections  int64 `json:"total_elections"`
	ActiveElections int64 `json:"active_elections"`
	TotalVotes      int64 `json:"total_votes"`
	TotalUsers      int64 `json:"total_users"`
	TotalCandidates int64 `json:"total_candidates"`
}

// ResultsService tallies votes.
type ResultsService struct {
	store store.Store
	now   func() time.Time
}

func NewResultsService(s store.Store) *ResultsService {
	return &ResultsService{store: s, now: time.Now}
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// count returns the election's candidates in retrieval order, votes per
// candidate id and the total number of votes cast in the election.
func (s *ResultsService) count(ctx context.Context, electionID string) ([]models.Candidate, map[string]int, int, error) {
	var votes []models.Vote
	if err := s.store.Select(ctx, store.From(models.TableVotes).Select("candidate_id").Eq("election_id", electionID), &votes); err != nil {
		return nil, nil, 0, Upstream("load votes", err)
	}
	counts := make(map[string]int, len(votes))
	for _, v := range votes {
		counts[v.CandidateID]++
	}

	var candidates []models.Candidate
	if err := s.store.Select(ctx, store.From(models.TableCandidates).Eq("election_id", electionID), &candidates); err != nil {
		return nil, nil, 0, Upstream("load candidates", err)
	}
	return candidates, counts, len(votes), nil
}

// Tally counts votes per candidate. Candidates without votes are included
// at zero; ties keep retrieval order.
func (s *ResultsService) Tally(ctx context.Context, electionID string) (*Tally, error) {
	candidates, counts, total, err := s.count(ctx, electionID)
	if err != nil {
		return nil, err
	}

	results := make([]CandidateResult, 0, len(candidates))
	for _, c := range candidates {
		n := counts[c.ID]
		results = append(results, CandidateResult{
			CandidateID:   c.ID,
			CandidateName: c.Name,
			VoteCount:     n,
			Percentage:    round2(percentage(n, total)),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].VoteCount > results[j].VoteCount
	})

	return &Tally{ElectionID: electionID, TotalVotes: total, Results: results}, nil
}

// ExportCSV renders the results file offered to admins for download.
func (s *ResultsService) ExportCSV(ctx context.Context, electionID string) (*Export, error) {
	var elections []models.Election
	if err := s.store.Select(ctx, store.From(models.TableElections).Eq("id", electionID), &elections); err != nil {
		return nil, Upstream("load election", err)
	}
	if len(elections) == 0 {
		return nil, NotFound("Election not found")
	}

	candidates, counts, total, err := s.count(ctx, electionID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	records := [][]string{
		{"Election Results Export"},
		{"Election:", elections[0].Title},
		{"Date:", s.now().UTC().Format("2006-01-02 15:04:05")},
		{},
		{"Candidate", "Votes", "Percentage"},
	}
	for _, c := range candidates {
		n := counts[c.ID]
		records = append(records, []string{c.Name, strconv.Itoa(n), fmt.Sprintf("%.2f%%", percentage(n, total))})
	}
	records = append(records, []string{}, []string{"Total Votes:", strconv.Itoa(total)})

	if err := w.WriteAll(records); err != nil {
		return nil, Upstream("render csv", err)
	}

	return &Export{
		Filename: fmt.Sprintf("election_%s_results.csv", electionID),
		Data:     buf.Bytes(),
	}, nil
}

// DashboardStats aggregates counts across all elections.
func (s *ResultsService) DashboardStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	counts := []struct {
		dest *int64
		q    store.Query
	}{
		{&stats.TotalElections, store.From(models.TableElections)},
		{&stats.ActiveElections, store.From(models.TableElections).Eq("is_active", true)},
		{&stats.TotalVotes, store.From(models.TableVotes)},
		{&stats.TotalUsers, store.From(models.TableVotes).Select("user_id").Unique()},
		{&stats.TotalCandidates, store.From(models.TableCandidates)},
	}
	for _, c := range counts {
		n, err := s.store.Count(ctx, c.q)
		if err != nil {
			return nil, Upstream("dashboard stats", err)
		}
		*c.dest = n
	}
	return &stats, nil
}
