package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/ballot/backend/internal/models"
	"github.com/Wikid82/ballot/backend/internal/store"
	"github.com/Wikid82/ballot/backend/internal/testutil"
)

func newStore(t *testing.T) *store.GormStore {
	return store.New(testutil.OpenTestDB(t), models.TableAuditLogs)
}

func TestGormStore_InsertSelect(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	active := &models.Election{Title: "Active", IsActive: true}
	inactive := &models.Election{Title: "Inactive", IsActive: false}
	require.NoError(t, s.Insert(ctx, models.TableElections, active))
	require.NoError(t, s.Insert(ctx, models.TableElections, inactive))
	assert.NotEmpty(t, active.ID)

	var got []models.Election
	require.NoError(t, s.Select(ctx, store.From(models.TableElections).Eq("is_active", true), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Active", got[0].Title)

	got = nil
	require.NoError(t, s.Select(ctx, store.From(models.TableElections).Where(store.In("id", active.ID, inactive.ID)), &got))
	assert.Len(t, got, 2)
}

func TestGormStore_OrderAndColumns(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		require.NoError(t, s.Insert(ctx, models.TableElections, &models.Election{Title: title, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	var got []models.Election
	require.NoError(t, s.Select(ctx, store.From(models.TableElections).Select("id", "title").Order("created_at", true), &got))
	require.Len(t, got, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{got[0].Title, got[1].Title, got[2].Title})
	assert.True(t, got[0].CreatedAt.IsZero())
}

func TestGormStore_Limit(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, s.Insert(ctx, models.TableElections, &models.Election{Title: title, IsActive: true}))
	}

	var got []models.Election
	q := store.From(models.TableElections).Eq("is_active", true)
	require.NoError(t, s.Select(ctx, q.Limit(2), &got))
	assert.Len(t, got, 2)

	n, err := s.Count(ctx, q.Limit(1))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = s.Update(ctx, q.Limit(1), map[string]interface{}{"is_active": false})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestGormStore_Update(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	e := &models.Election{Title: "Old", IsActive: true}
	require.NoError(t, s.Insert(ctx, models.TableElections, e))

	n, err := s.Update(ctx, store.From(models.TableElections).Eq("id", e.ID), map[string]interface{}{"title": "New", "is_active": false})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var got []models.Election
	require.NoError(t, s.Select(ctx, store.From(models.TableElections).Eq("id", e.ID), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "New", got[0].Title)
	assert.False(t, got[0].IsActive)

	n, err = s.Update(ctx, store.From(models.TableElections).Eq("id", "missing"), map[string]interface{}{"title": "x"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = s.Update(ctx, store.From(models.TableElections).Eq("id", e.ID), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.Update(ctx, store.From(models.TableElections), map[string]interface{}{"title": "all"})
	assert.ErrorIs(t, err, store.ErrUnfiltered)
}

func TestGormStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c := &models.Candidate{ElectionID: "e1", Name: "Alice"}
	require.NoError(t, s.Insert(ctx, models.TableCandidates, c))

	n, err := s.Delete(ctx, store.From(models.TableCandidates).Eq("id", c.ID))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	count, err := s.Count(ctx, store.From(models.TableCandidates))
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	_, err = s.Delete(ctx, store.From(models.TableCandidates))
	assert.ErrorIs(t, err, store.ErrUnfiltered)
}

func TestGormStore_CountDistinct(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC()
	votes := []models.Vote{
		{UserID: "u1", ElectionID: "e1", CandidateID: "c1", VotedAt: now, VoteHash: "a"},
		{UserID: "u1", ElectionID: "e2", CandidateID: "c2", VotedAt: now, VoteHash: "b"},
		{UserID: "u2", ElectionID: "e1", CandidateID: "c1", VotedAt: now, VoteHash: "c"},
	}
	for i := range votes {
		require.NoError(t, s.Insert(ctx, models.TableVotes, &votes[i]))
	}

	total, err := s.Count(ctx, store.From(models.TableVotes))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	users, err := s.Count(ctx, store.From(models.TableVotes).Select("user_id").Unique())
	require.NoError(t, err)
	assert.EqualValues(t, 2, users)
}

func TestGormStore_InsertDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	now := time.Now().UTC()
	require.NoError(t, s.Insert(ctx, models.TableVotes, &models.Vote{UserID: "u1", ElectionID: "e1", CandidateID: "c1", VotedAt: now, VoteHash: "a"}))

	err := s.Insert(ctx, models.TableVotes, &models.Vote{UserID: "u1", ElectionID: "e1", CandidateID: "c2", VotedAt: now, VoteHash: "b"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestGormStore_ProtectedTable(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	entry := &models.AuditLog{UserID: "u1", Action: models.ActionVoteCast, Timestamp: time.Now().UTC()}

	err := s.Insert(ctx, models.TableAuditLogs, entry)
	assert.ErrorIs(t, err, store.ErrPermission)

	require.NoError(t, s.Elevated().Insert(ctx, models.TableAuditLogs, entry))
	assert.NotZero(t, entry.ID)

	var logs []models.AuditLog
	require.NoError(t, s.Select(ctx, store.From(models.TableAuditLogs), &logs))
	assert.Len(t, logs, 1)
}

func TestGormStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx store.Store) error {
		if err := tx.Insert(ctx, models.TableElections, &models.Election{Title: "Doomed"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.Count(ctx, store.From(models.TableElections))
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	err = s.Transaction(ctx, func(tx store.Store) error {
		if err := tx.Insert(ctx, models.TableElections, &models.Election{Title: "Kept"}); err != nil {
			return err
		}
		return tx.Elevated().Insert(ctx, models.TableAuditLogs, &models.AuditLog{Action: "test", Timestamp: time.Now().UTC()})
	})
	require.NoError(t, err)
	n, err = s.Count(ctx, store.From(models.TableElections))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
