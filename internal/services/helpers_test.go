package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Wikid82/ballot/backend/internal/models"
	"github.com/Wikid82/ballot/backend/internal/store"
	"github.com/Wikid82/ballot/backend/internal/testutil"
)

func setupStore(t *testing.T) (*store.GormStore, *gorm.DB) {
	t.Helper()
	db := testutil.OpenTestDB(t)
	return store.New(db, models.TableAuditLogs), db
}

func seedElection(t *testing.T, db *gorm.DB, title string, active bool, candidates ...string) (*models.Election, []models.Candidate) {
	t.Helper()
	e := &models.Election{Title: title, IsActive: active}
	require.NoError(t, db.Create(e).Error)
	out := make([]models.Candidate, 0, len(candidates))
	for _, name := range candidates {
		c := models.Candidate{ElectionID: e.ID, Name: name}
		require.NoError(t, db.Create(&c).Error)
		out = append(out, c)
	}
	return e, out
}

// blindStore hides existing votes from Count, reproducing two concurrent
// requests that both pass the already-voted check.
type blindStore struct {
	store.Store
}

func (b blindStore) Count(ctx context.Context, q store.Query) (int64, error) {
	if q.Table == models.TableVotes {
		return 0, nil
	}
	return b.Store.Count(ctx, q)
}
