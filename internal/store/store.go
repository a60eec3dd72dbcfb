// Package store is the generic filter-based data access layer every service
// talks to. It mirrors the hosted platform's table API (select, insert,
// update, delete) so services never touch gorm directly.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("duplicate row")
	// ErrPermission is returned when a normal-privilege store writes a protected table.
	ErrPermission = errors.New("permission denied for table")
	// ErrUnfiltered guards against updates or deletes that would touch every row.
	ErrUnfiltered = errors.New("refusing unfiltered write")
)

// Store is the query interface of the relational store.
type Store interface {
	Select(ctx context.Context, q Query, dest interface{}) error
	Insert(ctx context.Context, table string, row interface{}) error
	Update(ctx context.Context, q Query, patch map[string]interface{}) (int64, error)
	Delete(ctx context.Context, q Query) (int64, error)
	Count(ctx context.Context, q Query) (int64, error)
	// Transaction runs fn against a transactional view of the store. Any
	// error returned by fn rolls the whole transaction back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	// Elevated returns a view that bypasses table protection, the
	// equivalent of the platform's service-role client.
	Elevated() Store
}

// GormStore implements Store on top of a gorm connection.
type GormStore struct {
	db        *gorm.DB
	elevated  bool
	protected map[string]struct{}
}

// New returns a normal-privilege store. Writes to any of the protected
// tables fail with ErrPermission unless made through Elevated().
func New(db *gorm.DB, protected ...string) *GormStore {
	p := make(map[string]struct{}, len(protected))
	for _, t := range protected {
		p[t] = struct{}{}
	}
	return &GormStore{db: db, protected: p}
}

func (s *GormStore) scoped(ctx context.Context, q Query) *gorm.DB {
	tx := s.db.WithContext(ctx).Table(q.Table)
	for _, f := range q.Filters {
		tx = tx.Where(f.expression())
	}
	if len(q.Columns) > 0 {
		if q.Distinct {
			tx = tx.Distinct(toArgs(q.Columns)...)
		} else {
			tx = tx.Select(q.Columns)
		}
	}
	if q.OrderBy != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy}, Desc: q.Desc})
	}
	return tx
}

func (s *GormStore) checkWrite(table string) error {
	if s.elevated {
		return nil
	}
	if _, ok := s.protected[table]; ok {
		return fmt.Errorf("%w %s", ErrPermission, table)
	}
	return nil
}

// Select loads matching rows into dest, a pointer to a slice.
func (s *GormStore) Select(ctx context.Context, q Query, dest interface{}) error {
	tx := s.scoped(ctx, q)
	if q.Max > 0 {
		tx = tx.Limit(q.Max)
	}
	if err := tx.Find(dest).Error; err != nil {
		return fmt.Errorf("select %s: %w", q.Table, err)
	}
	return nil
}

// Insert creates row, a pointer to a model; generated fields are written back.
func (s *GormStore) Insert(ctx context.Context, table string, row interface{}) error {
	if err := s.checkWrite(table); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("insert %s: %w", table, ErrDuplicate)
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// Update applies patch to matching rows and returns how many matched. An
// empty patch changes nothing but still reports the match count.
func (s *GormStore) Update(ctx context.Context, q Query, patch map[string]interface{}) (int64, error) {
	if err := s.checkWrite(q.Table); err != nil {
		return 0, err
	}
	if len(q.Filters) == 0 {
		return 0, fmt.Errorf("update %s: %w", q.Table, ErrUnfiltered)
	}
	if len(patch) == 0 {
		return s.Count(ctx, q)
	}
	res := s.scoped(ctx, q).Updates(patch)
	if res.Error != nil {
		return 0, fmt.Errorf("update %s: %w", q.Table, res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes matching rows and returns how many were removed.
func (s *GormStore) Delete(ctx context.Context, q Query) (int64, error) {
	if err := s.checkWrite(q.Table); err != nil {
		return 0, err
	}
	if len(q.Filters) == 0 {
		return 0, fmt.Errorf("delete %s: %w", q.Table, ErrUnfiltered)
	}
	res := s.scoped(ctx, q).Delete(map[string]interface{}{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", q.Table, res.Error)
	}
	return res.RowsAffected, nil
}

// Count returns the number of matching rows, or of distinct column values
// when the query is Unique.
func (s *GormStore) Count(ctx context.Context, q Query) (int64, error) {
	var n int64
	q.OrderBy = ""
	if err := s.scoped(ctx, q).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Table, err)
	}
	return n, nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, elevated: s.elevated, protected: s.protected})
	})
}

func (s *GormStore) Elevated() Store {
	return &GormStore{db: s.db, elevated: true, protected: s.protected}
}

func toArgs(cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}
