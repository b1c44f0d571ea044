// Package sqlite provides a github.com/mattn/go-sqlite3-backed
// implementation of eventstore.Store, persisting one row per event with an
// opaque JSON payload column and serializing per-session sequence
// allocation through a single read-max-then-insert transaction, retried on
// conflict (§4.1, §5).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/pathwaylearn/pathway-core/event"
	"github.com/pathwaylearn/pathway-core/eventstore"
	"github.com/pathwaylearn/pathway-core/pwerrors"
	"github.com/pathwaylearn/pathway-core/pwlog"
	"github.com/pathwaylearn/pathway-core/validate"
)

const schemaVersion = 1

const maxAppendRetries = 8

// Store implements eventstore.Store over a SQLite database file (or
// ":memory:").
type Store struct {
	db  *sql.DB
	log *pwlog.Logger
}

// New opens (creating if absent) the SQLite database at path.
func New(path string) (*Store, error) {
	return NewWithLogger(path, pwlog.Nop())
}

// NewWithLogger is New but lets the caller supply a configured logger,
// matching the ambient logging convention used throughout the core.
func NewWithLogger(path string, log *pwlog.Logger) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: open %q", path)
	}
	if path == ":memory:" {
		// A single shared connection keeps in-memory databases from
		// disappearing the instant a pooled connection is returned.
		db.SetMaxOpenConns(1)
	}
	if log == nil {
		log = pwlog.Nop()
	}
	return &Store{db: db, log: log}, nil
}

// Migrate creates the schema if absent and records the schema version.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			ts TEXT NOT NULL,
			actor_kind TEXT NOT NULL,
			actor_id TEXT,
			head_id TEXT NOT NULL,
			parent_event_id TEXT,
			waypoint_id TEXT,
			payload BLOB NOT NULL,
			UNIQUE(session_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_seq ON events(session_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_events_parent ON events(parent_event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_head ON events(session_id, head_id)`,
		`CREATE TABLE IF NOT EXISTS schema_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL
		)`,
		`INSERT OR IGNORE INTO schema_meta (id, version) VALUES (1, ` + fmt.Sprint(schemaVersion) + `)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: migrate")
		}
	}
	return nil
}

// Close flushes pending transactions and releases resources.
func (s *Store) Close() error { return s.db.Close() }

// Append assigns seq and (if absent) event_id, validates, and persists the
// candidate event under a single serialized critical section per session.
func (s *Store) Append(ctx context.Context, candidate event.NewEvent) (*event.Envelope, error) {
	n := candidate.Normalized()

	if err := validate.Envelope(ctx, n, s); err != nil {
		return nil, err
	}

	if n.EventID == "" {
		n.EventID = event.NewEventID()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}

	var stored *event.Envelope
	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		var err error
		stored, err = s.tryAppend(ctx, n)
		if err == nil {
			return stored, nil
		}
		if !isRetryable(err, n) {
			return nil, err
		}
		s.log.Debug("append: retrying after seq contention", "session_id", n.SessionID, "attempt", attempt)
	}
	return nil, pwerrors.New(pwerrors.StoreFailure, "sqlite: append: exhausted retries for session %q", n.SessionID)
}

// isRetryable reports whether err represents lost seq-allocation contention
// that should be retried — only when the caller did not pin an explicit
// seq, since an explicit seq collision is reported to the caller as
// SeqConflict rather than silently reassigned.
func isRetryable(err error, n event.NewEvent) bool {
	if n.Seq != 0 {
		return false
	}
	return pwerrors.Is(err, pwerrors.SeqConflict)
}

func (s *Store) tryAppend(ctx context.Context, n event.NewEvent) (*event.Envelope, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var maxSeq sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(seq) FROM events WHERE session_id = ?`, n.SessionID).Scan(&maxSeq); err != nil {
		return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: read max seq")
	}
	next := maxSeq.Int64 + 1

	assigned := next
	if n.Seq != 0 {
		if n.Seq != next {
			return nil, pwerrors.New(pwerrors.SeqConflict, "sqlite: explicit seq %d for session %q would not be contiguous (expected %d)", n.Seq, n.SessionID, next)
		}
		assigned = n.Seq
	}

	payload := n.Payload
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (event_id, session_id, seq, type, ts, actor_kind, actor_id, head_id, parent_event_id, waypoint_id, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.EventID, n.SessionID, assigned, string(n.Type), n.Timestamp.Format(time.RFC3339Nano),
		string(n.Actor.Kind), nullableString(n.Actor.ID), n.HeadID,
		nullableString(n.ParentEventID), nullableString(n.WaypointID), []byte(payload),
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			if strings.Contains(err.Error(), "event_id") {
				return nil, pwerrors.Wrap(pwerrors.InvalidEnvelope, err, "sqlite: event_id %q already exists", n.EventID)
			}
			return nil, pwerrors.Wrap(pwerrors.SeqConflict, err, "sqlite: seq %d for session %q already taken", assigned, n.SessionID)
		}
		return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: insert event")
	}

	if err := tx.Commit(); err != nil {
		if isSQLiteBusy(err) || isUniqueConstraintErr(err) {
			return nil, pwerrors.Wrap(pwerrors.SeqConflict, err, "sqlite: commit lost seq race for session %q", n.SessionID)
		}
		return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: commit")
	}

	return &event.Envelope{
		EventID:       n.EventID,
		SessionID:     n.SessionID,
		Seq:           assigned,
		Type:          n.Type,
		Timestamp:     n.Timestamp,
		Actor:         n.Actor,
		HeadID:        n.HeadID,
		ParentEventID: n.ParentEventID,
		WaypointID:    n.WaypointID,
		Payload:       payload,
	}, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isSQLiteBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return strings.Contains(err.Error(), "database is locked")
}

// GetEvent looks up a single event by id.
func (s *Store) GetEvent(ctx context.Context, eventID string) (*event.Envelope, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE event_id = ?`, eventID)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pwerrors.New(pwerrors.NotFound, "event %q not found", eventID)
		}
		return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: get event")
	}
	return e, nil
}

const selectColumns = `SELECT event_id, session_id, seq, type, ts, actor_kind, actor_id, head_id, parent_event_id, waypoint_id, payload FROM events`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*event.Envelope, error) {
	var (
		e        event.Envelope
		ts       string
		actorID  sql.NullString
		parentID sql.NullString
		waypoint sql.NullString
		payload  []byte
		typ      string
		actorK   string
	)
	if err := row.Scan(&e.EventID, &e.SessionID, &e.Seq, &typ, &ts, &actorK, &actorID, &e.HeadID, &parentID, &waypoint, &payload); err != nil {
		return nil, err
	}
	e.Type = event.Kind(typ)
	e.Actor = event.Actor{Kind: event.ActorKind(actorK), ID: actorID.String}
	e.ParentEventID = parentID.String
	e.WaypointID = waypoint.String
	e.Payload = json.RawMessage(payload)
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parse ts: %w", err)
	}
	e.Timestamp = parsed
	return &e, nil
}

// GetEvents returns events for sessionID matching f, ordered by seq so the
// result never requires an in-memory sort.
func (s *Store) GetEvents(ctx context.Context, sessionID string, f eventstore.Filter) ([]*event.Envelope, error) {
	q := strings.Builder{}
	q.WriteString(selectColumns + ` WHERE session_id = ?`)
	args := []any{sessionID}

	if f.Type != "" {
		q.WriteString(` AND type = ?`)
		args = append(args, string(f.Type))
	}
	if f.HeadID != "" {
		q.WriteString(` AND head_id = ?`)
		args = append(args, f.HeadID)
	}
	if f.SeqMin != 0 {
		q.WriteString(` AND seq >= ?`)
		args = append(args, f.SeqMin)
	}
	if f.SeqMax != 0 {
		q.WriteString(` AND seq <= ?`)
		args = append(args, f.SeqMax)
	}

	order := "ASC"
	if f.Order == eventstore.Desc {
		order = "DESC"
	}
	q.WriteString(` ORDER BY seq ` + order)

	if f.Limit > 0 {
		q.WriteString(` LIMIT ?`)
		args = append(args, f.Limit)
		if f.Offset > 0 {
			q.WriteString(` OFFSET ?`)
			args = append(args, f.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: get events")
	}
	defer rows.Close()

	var out []*event.Envelope
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: scan event")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetChildren returns events whose parent_event_id matches eventID.
func (s *Store) GetChildren(ctx context.Context, eventID string) ([]*event.Envelope, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE parent_event_id = ? ORDER BY seq ASC`, eventID)
	if err != nil {
		return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: get children")
	}
	defer rows.Close()

	var out []*event.Envelope
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: scan child")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetHeads computes each branch's current tip: the highest-seq event
// recorded on that head_id.
func (s *Store) GetHeads(ctx context.Context, sessionID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT head_id, event_id FROM events e
		WHERE session_id = ? AND seq = (
			SELECT MAX(seq) FROM events WHERE session_id = e.session_id AND head_id = e.head_id
		)`, sessionID)
	if err != nil {
		return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: get heads")
	}
	defer rows.Close()

	heads := make(map[string]string)
	for rows.Next() {
		var head, id string
		if err := rows.Scan(&head, &id); err != nil {
			return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: scan head")
		}
		heads[head] = id
	}
	return heads, rows.Err()
}

// ListSessions returns every distinct session with its event count and the
// timestamp of its latest event.
func (s *Store) ListSessions(ctx context.Context) ([]eventstore.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MAX(ts) FROM events GROUP BY session_id ORDER BY session_id`)
	if err != nil {
		return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: list sessions")
	}
	defer rows.Close()

	var out []eventstore.SessionSummary
	for rows.Next() {
		var sum eventstore.SessionSummary
		var ts string
		if err := rows.Scan(&sum.SessionID, &sum.EventCount, &ts); err != nil {
			return nil, pwerrors.Wrap(pwerrors.StoreFailure, err, "sqlite: scan session summary")
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			sum.LatestTS = parsed
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

var _ eventstore.Store = (*Store)(nil)
