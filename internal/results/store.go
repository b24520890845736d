// Package results keeps the history of completed rounds in SQLite.
package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amenassefagashaye/USA3/internal/bingo"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// timeLayout is fixed width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Result is one completed round as served by the results API.
type Result struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"gameId"`
	GameType   string    `json:"gameType"`
	WinnerID   string    `json:"winnerId"`
	WinnerName string    `json:"winnerName"`
	Pattern    string    `json:"pattern"`
	Pot        int64     `json:"potAmount"`
	Winnings   int64     `json:"winnings"`
	DrawCount  int       `json:"drawCount"`
	Drawn      []int     `json:"calledNumbers"`
	DecidedBy  string    `json:"decidedBy"`
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// RecordResult implements bingo.ResultRecorder.
func (s *SQLiteStore) RecordResult(ctx context.Context, r bingo.RoundResult) error {
	drawn, err := json.Marshal(r.Drawn)
	if err != nil {
		return fmt.Errorf("encoding drawn numbers: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO round_results
			(session_id, game_type, winner_id, winner_name, pattern, pot, winnings,
			 draw_count, drawn, decided_by, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.SessionID, string(r.GameType), r.WinnerID, r.WinnerName, string(r.Pattern),
		r.Pot, r.Winnings, len(r.Drawn), string(drawn), string(r.DecidedBy),
		r.StartedAt.UTC().Format(timeLayout), r.EndedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting round result: %w", err)
	}
	return nil
}

// List returns up to limit results, newest first. A non-positive limit
// means DefaultLimit; limits above MaxLimit are clamped.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, game_type, winner_id, winner_name, pattern, pot,
		       winnings, draw_count, drawn, decided_by, started_at, ended_at
		FROM round_results
		ORDER BY ended_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying round results: %w", err)
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var (
			r                  Result
			drawn              string
			startedAt, endedAt string
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.GameType, &r.WinnerID, &r.WinnerName,
			&r.Pattern, &r.Pot, &r.Winnings, &r.DrawCount, &drawn, &r.DecidedBy,
			&startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scanning round result: %w", err)
		}
		if err := json.Unmarshal([]byte(drawn), &r.Drawn); err != nil {
			return nil, fmt.Errorf("decoding drawn numbers for result %d: %w", r.ID, err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if r.EndedAt, err = time.Parse(timeLayout, endedAt); err != nil {
			return nil, fmt.Errorf("parsing ended_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Check reports whether the ledger database is reachable.
func (s *SQLiteStore) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
