// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ListOptions filters List.
type ListOptions struct {
	// Source keeps sessions whose source contains this substring.
	Source string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Summary describes a session without loading its graphs.
type Summary struct {
	ID         string    `json:"id" yaml:"id"`
	Source     string    `json:"source" yaml:"source"`
	Turns      int       `json:"turns" yaml:"turns"`
	LatestTurn int       `json:"latest_turn" yaml:"latest_turn"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// List returns sessions, most recently updated first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT s.id, COALESCE(s.source, ''), s.created_at,
			COUNT(n.turn), COALESCE(MAX(n.turn), 0), COALESCE(MAX(n.updated_at), s.created_at)
		FROM sessions s
		LEFT JOIN snapshots n ON n.session_id = s.id
		WHERE 1=1`)
	if opts.Source != "" {
		qb.WriteString(` AND s.source LIKE ?`)
		args = append(args, "%"+opts.Source+"%")
	}
	qb.WriteString(` GROUP BY s.id ORDER BY 6 DESC, s.id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum                  Summary
			createdAt, updatedAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Source, &createdAt, &sum.Turns, &sum.LatestTurn, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sum.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		sum.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}
