// Package eventstore defines the durable, append-only event store contract:
// atomic per-session sequence allocation, validation on ingest, and indexed
// queries by session/seq/head/kind.
package eventstore

import (
	"context"
	"time"

	"github.com/pathwaylearn/pathway-core/event"
)

// Order controls the direction a GetEvents scan is returned in.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Filter narrows a GetEvents query. Zero values mean "no filter" for that
// dimension.
type Filter struct {
	Type    event.Kind
	HeadID  string
	SeqMin  int64
	SeqMax  int64
	Limit   int
	Offset  int
	Order   Order
}

// SessionSummary is one row of ListSessions.
type SessionSummary struct {
	SessionID  string
	EventCount int64
	LatestTS   time.Time
}

// Store is the durable, append-only event log. Implementations must
// serialize sequence allocation per session so that seqs are gapless and
// monotonic under concurrent writers (§5).
type Store interface {
	// Append assigns seq and (if absent) event_id, validates the candidate
	// against the session's existing history, persists it, and returns the
	// stored event. It never partially succeeds: either the event is
	// durable with an assigned seq, or no side effect occurred.
	Append(ctx context.Context, candidate event.NewEvent) (*event.Envelope, error)

	GetEvent(ctx context.Context, eventID string) (*event.Envelope, error)
	GetEvents(ctx context.Context, sessionID string, f Filter) ([]*event.Envelope, error)
	GetChildren(ctx context.Context, eventID string) ([]*event.Envelope, error)
	GetHeads(ctx context.Context, sessionID string) (map[string]string, error)
	ListSessions(ctx context.Context) ([]SessionSummary, error)

	// Migrate creates the schema if absent and records the schema version.
	Migrate(ctx context.Context) error
	// Close flushes pending transactions and releases resources.
	Close() error
}
