package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActionVoteCast is the audit action recorded for every accepted vote.
const ActionVoteCast = "vote_cast"

// Vote records a single user's choice in an election. The composite unique
// index is what actually guarantees one vote per user per election.
type Vote struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"not null;uniqueIndex:idx_votes_user_election,priority:1"`
	ElectionID  string    `json:"election_id" gorm:"not null;uniqueIndex:idx_votes_user_election,priority:2;index"`
	CandidateID string    `json:"candidate_id" gorm:"not null;index"`
	VotedAt     time.Time `json:"voted_at" gorm:"index"`
	VoteHash    string    `json:"vote_hash" gorm:"not null"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return
}

// AuditLog is an append-only accountability record. Only the elevated store
// may write it.
type AuditLog struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"index"`
	ElectionID  string    `json:"election_id" gorm:"index"`
	CandidateID string    `json:"candidate_id"`
	VoteHash    string    `json:"vote_hash"`
	Action      string    `json:"action"`
	Timestamp   time.Time `json:"timestamp"`
	IPAddress   string    `json:"ip_address"`
}
