package db

import (
	"context"
	"fmt"
)

type Summary struct {
	Games        int     `json:"games"`
	Wins         int     `json:"wins"`
	Draws        int     `json:"draws"`
	Timeouts     int     `json:"timeouts"`
	AvgWinLine   float64 `json:"avgWinLine"`
	AvgTimeLimit float64 `json:"avgTimeLimit"`
}

// Summarize aggregates every recorded result.
func (d *DB) Summarize(ctx context.Context) (Summary, error) {
	var s Summary
	err := d.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE reason = 'win'),
			COUNT(*) FILTER (WHERE reason = 'draw'),
			COUNT(*) FILTER (WHERE reason = 'timeout'),
			COALESCE(AVG(target_length) FILTER (WHERE reason = 'win'), 0),
			COALESCE(AVG(time_limit), 0)
		FROM game_results
	`).Scan(&s.Games, &s.Wins, &s.Draws, &s.Timeouts, &s.AvgWinLine, &s.AvgTimeLimit)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing results: %w", err)
	}
	return s, nil
}
