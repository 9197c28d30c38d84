// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists traversal sessions: one snapshot per mapping
// round (turn), holding the canonical graph, its narrative, the graph
// generation, and the serialized traversal state.
//
// A state is only valid for the generation it was built against. Load
// discards a stored state whose generation does not match the stored graph
// and starts over from traversal.Init, and a new mapping round always
// becomes a new turn with a fresh state.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/claimgraph/internal/forcing"
	"github.com/pdiddy/claimgraph/internal/traversal"
	"github.com/pdiddy/claimgraph/pkg/types"
)

const dbFile = "sessions.db"

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrNotFound is returned when a session or turn does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrStaleGeneration is returned when a state is saved against a graph
	// generation other than the snapshot's.
	ErrStaleGeneration = errors.New("state belongs to a different graph generation")
)

// now is the clock used for timestamps. Tests override it.
var now = time.Now

// Snapshot is one turn of a session.
type Snapshot struct {
	SessionID  string
	Turn       int
	Generation string
	Graph      *types.Graph
	Narrative  string

	// Points are derived from Graph on load; they are not stored.
	Points []types.ForcingPoint

	State     types.TraversalState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store manages the session SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates dir/sessions.db and its schema.
func NewStore(cfg types.SessionConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	s := &Store{
		db:         db,
		dir:        cfg.Dir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			source TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			turn INTEGER NOT NULL,
			generation TEXT NOT NULL,
			graph TEXT NOT NULL,
			narrative TEXT,
			state TEXT NOT NULL,
			state_generation TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (session_id, turn)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_generation ON snapshots(generation)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Start creates a session whose first turn is g with a fresh state.
func (s *Store) Start(ctx context.Context, g *types.Graph, narrative, source string) (*Snapshot, error) {
	id := uuid.NewString()
	ts := now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, source, created_at) VALUES (?, ?, ?)`,
		id, source, ts.Format(timeLayout),
	); err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	snap, err := insertSnapshot(ctx, tx, id, 1, g, narrative, ts)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing session: %w", err)
	}
	return snap, nil
}

// Advance records a new mapping round for sessionID as the next turn. The
// previous turn's state is not carried over.
func (s *Store) Advance(ctx context.Context, sessionID string, g *types.Graph, narrative string) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM sessions WHERE id = ?`, sessionID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking session: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(turn) FROM snapshots WHERE session_id = ?`, sessionID,
	).Scan(&last); err != nil {
		return nil, fmt.Errorf("reading latest turn: %w", err)
	}

	snap, err := insertSnapshot(ctx, tx, sessionID, int(last.Int64)+1, g, narrative, now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing turn: %w", err)
	}
	return snap, nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, sessionID string, turn int, g *types.Graph, narrative string, ts time.Time) (*Snapshot, error) {
	graphJSON, err := marshalGraph(g)
	if err != nil {
		return nil, err
	}

	gen := forcing.Fingerprint(g)
	state := traversal.Init(g)
	stateJSON, err := traversal.Marshal(state)
	if err != nil {
		return nil, err
	}

	stamp := ts.Format(timeLayout)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (session_id, turn, generation, graph, narrative, state, state_generation, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, turn, gen, string(graphJSON), narrative, string(stateJSON), gen, stamp, stamp,
	); err != nil {
		return nil, fmt.Errorf("inserting snapshot: %w", err)
	}

	return &Snapshot{
		SessionID:  sessionID,
		Turn:       turn,
		Generation: gen,
		Graph:      g,
		Narrative:  narrative,
		Points:     forcing.Extract(g),
		State:      state,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}, nil
}

// Load reads a turn of sessionID. A turn of 0 or less loads the latest.
func (s *Store) Load(ctx context.Context, sessionID string, turn int) (*Snapshot, error) {
	query := `SELECT turn, generation, graph, narrative, state, state_generation, created_at, updated_at
		FROM snapshots WHERE session_id = ?`
	args := []any{sessionID}
	if turn > 0 {
		query += ` AND turn = ?`
		args = append(args, turn)
	} else {
		query += ` ORDER BY turn DESC LIMIT 1`
	}

	snap := Snapshot{SessionID: sessionID}
	var (
		graphJSON, stateJSON, stateGen string
		narrative                      sql.NullString
		createdAt, updatedAt           string
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&snap.Turn, &snap.Generation, &graphJSON, &narrative, &stateJSON, &stateGen, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		if turn > 0 {
			return nil, fmt.Errorf("session %s turn %d: %w", sessionID, turn, ErrNotFound)
		}
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	g, err := unmarshalGraph([]byte(graphJSON))
	if err != nil {
		return nil, err
	}
	snap.Graph = g
	snap.Narrative = narrative.String
	snap.Points = forcing.Extract(g)
	snap.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	snap.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)

	state, ok := traversal.Unmarshal([]byte(stateJSON))
	if !ok || stateGen != snap.Generation {
		state = traversal.Init(g)
	}
	snap.State = traversal.Reconcile(g, state)

	return &snap, nil
}

// SaveState replaces the state of one turn. generation must be the
// snapshot's generation; a state built for another graph is rejected with
// ErrStaleGeneration.
func (s *Store) SaveState(ctx context.Context, sessionID string, turn int, generation string, state types.TraversalState) error {
	stateJSON, err := traversal.Marshal(state)
	if err != nil {
		return err
	}

	var stored string
	err = s.db.QueryRowContext(ctx,
		`SELECT generation FROM snapshots WHERE session_id = ? AND turn = ?`, sessionID, turn,
	).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %s turn %d: %w", sessionID, turn, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading snapshot generation: %w", err)
	}
	if stored != generation {
		return fmt.Errorf("session %s turn %d: %w", sessionID, turn, ErrStaleGeneration)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE snapshots SET state = ?, state_generation = ?, updated_at = ?
		 WHERE session_id = ? AND turn = ?`,
		string(stateJSON), generation, now().UTC().Format(timeLayout), sessionID, turn,
	); err != nil {
		return fmt.Errorf("updating state: %w", err)
	}
	return nil
}

func marshalGraph(g *types.Graph) ([]byte, error) {
	if g == nil {
		return nil, errors.New("marshaling graph: nil graph")
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshaling graph: %w", err)
	}
	return data, nil
}

func unmarshalGraph(data []byte) (*types.Graph, error) {
	var g types.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decoding stored graph: %w", err)
	}
	return &g, nil
}
