package models

import "time"

type NotificationTask struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Email      Email     `json:"email"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

const (
	TaskKindTokenIssued   = "token_issued"
	TaskKindPendingDigest = "pending_digest"
)
