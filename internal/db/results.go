package db

import (
	"chinchi/internal/board"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type GameResult struct {
	ID           int64       `json:"id"`
	RoomCode     string      `json:"roomId"`
	Players      [2]string   `json:"players"`
	Winner       string      `json:"winner,omitempty"`
	Reason       string      `json:"reason"`
	Board        board.Board `json:"board"`
	Line         []int       `json:"line,omitempty"`
	TargetLength int         `json:"targetLength"`
	TimeLimit    int         `json:"timeLimit"`
	FinishedAt   time.Time   `json:"finishedAt"`
}

// RecordResults inserts results in one transaction.
func (d *DB) RecordResults(results []GameResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO game_results (room_code, player_one, player_two, winner, reason, board, line, target_length, time_limit, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		boardJSON, err := json.Marshal(r.Board)
		if err != nil {
			return fmt.Errorf("encoding board: %w", err)
		}
		var line sql.NullString
		if r.Line != nil {
			data, err := json.Marshal(r.Line)
			if err != nil {
				return fmt.Errorf("encoding line: %w", err)
			}
			line = sql.NullString{String: string(data), Valid: true}
		}
		winner := sql.NullString{String: r.Winner, Valid: r.Winner != ""}
		if _, err := stmt.Exec(r.RoomCode, r.Players[0], r.Players[1], winner, r.Reason,
			string(boardJSON), line, r.TargetLength, r.TimeLimit, r.FinishedAt); err != nil {
			return fmt.Errorf("recording result in batch: %w", err)
		}
	}

	return tx.Commit()
}

// RecentResults returns up to limit results, newest first.
func (d *DB) RecentResults(ctx context.Context, limit int) ([]GameResult, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, room_code, player_one, player_two, winner, reason, board, line, target_length, time_limit, finished_at
		FROM game_results
		ORDER BY finished_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	results := []GameResult{}
	for rows.Next() {
		var (
			r         GameResult
			winner    sql.NullString
			boardJSON []byte
			line      []byte
		)
		if err := rows.Scan(&r.ID, &r.RoomCode, &r.Players[0], &r.Players[1], &winner, &r.Reason,
			&boardJSON, &line, &r.TargetLength, &r.TimeLimit, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.Winner = winner.String
		if err := json.Unmarshal(boardJSON, &r.Board); err != nil {
			return nil, fmt.Errorf("decoding board: %w", err)
		}
		if line != nil {
			if err := json.Unmarshal(line, &r.Line); err != nil {
				return nil, fmt.Errorf("decoding line: %w", err)
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
