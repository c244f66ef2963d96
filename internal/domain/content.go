package domain

import (
	"time"
)

type ContentStatus string

const (
	ContentPending    ContentStatus = "pending"
	ContentInProgress ContentStatus = "in_progress"
	ContentProcessed  ContentStatus = "processed"
	ContentFailed     ContentStatus = "failed"
)

func ValidContentStatus(s string) bool {
	switch ContentStatus(s) {
	case ContentPending, ContentInProgress, ContentProcessed, ContentFailed:
		return true
	}
	return false
}

func (s ContentStatus) Terminal() bool {
	return s == ContentProcessed || s == ContentFailed
}

// CanTransitionTo encodes pending -> in_progress -> {processed, failed}.
func (s ContentStatus) CanTransitionTo(next ContentStatus) bool {
	switch s {
	case ContentPending:
		return next == ContentInProgress
	case ContentInProgress:
		return next == ContentProcessed || next == ContentFailed
	}
	return false
}

// RawContent is a chunk of extracted page text queued for the processor.
// Created by the ingestor on a successful fetch, mutated only by the
// processor, immutable once terminal. TargetID is a weak reference: targets
// are never deleted, but the schema tolerates a dangling link.
type RawContent struct {
	ID        int64         `json:"id"`
	TargetID  *int64        `json:"target_id,omitempty"`
	URL       string        `json:"url"`
	RawText   string        `json:"raw_text"`
	Status    ContentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
