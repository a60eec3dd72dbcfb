package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Election is a ballot that users can vote in while IsActive is set.
// IsActive carries no gorm default so an explicit false survives Create.
type Election struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	IsActive    bool       `json:"is_active" gorm:"index"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
}

func (e *Election) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return
}

// Candidate is one option on an election's ballot. ElectionID is not a
// foreign key: deleting an election leaves its candidates in place.
type Candidate struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ElectionID  string    `json:"election_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Candidate) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// Table names used with the generic store.
const (
	TableElections  = "elections"
	TableCandidates = "candidates"
	TableVotes      = "votes"
	TableAuditLogs  = "audit_logs"
)
