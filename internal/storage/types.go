package storage

import (
	"context"
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Config configures storage.
//
// Driver values:
//   - "file": JSON Lines file
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RunRecord is one completed check run.
type RunRecord struct {
	ID        string    `json:"id"`
	Today     string    `json:"today"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Subject   string    `json:"subject"`
	MessageID string    `json:"message_id,omitempty"`
	SendError string    `json:"send_error,omitempty"`
	Articles  int       `json:"articles"`
	Images    int       `json:"images"`
	StartedAt time.Time `json:"started_at"`
	TookMS    int64     `json:"took_ms"`
}

// Store persists run records.
type Store interface {
	AppendRun(ctx context.Context, r RunRecord) error
	// RecentRuns returns up to limit records, newest first.
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}
