package domain

import (
	"time"
)

type TargetStatus string

const (
	TargetPending    TargetStatus = "pending"
	TargetInProgress TargetStatus = "in_progress"
	TargetCompleted  TargetStatus = "completed"
	TargetFailed     TargetStatus = "failed"
)

func ValidTargetStatus(s string) bool {
	switch TargetStatus(s) {
	case TargetPending, TargetInProgress, TargetCompleted, TargetFailed:
		return true
	}
	return false
}

// Terminal reports whether the status is an end state. Terminal targets are
// retained as an audit trail and never deleted.
func (s TargetStatus) Terminal() bool {
	return s == TargetCompleted || s == TargetFailed
}

// CanTransitionTo encodes the monotonic status graph
// pending -> in_progress -> {completed, failed}. A status never regresses.
func (s TargetStatus) CanTransitionTo(next TargetStatus) bool {
	switch s {
	case TargetPending:
		return next == TargetInProgress
	case TargetInProgress:
		return next == TargetCompleted || next == TargetFailed
	}
	return false
}

// CrawlTarget is a URL the ingestor is responsible for fetching. Targets are
// created at init (seeded from config) or via the add-target command, and are
// mutated only by the ingestor.
type CrawlTarget struct {
	ID            int64        `json:"id"`
	URL           string       `json:"url"`
	Status        TargetStatus `json:"status"`
	LastAttemptAt *time.Time   `json:"last_attempt_at,omitempty"`
}
