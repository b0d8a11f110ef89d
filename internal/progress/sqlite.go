// internal/progress/sqlite.go
//
// SQL implementation of the progress Store.
//
// Tables (see assets/sql):
//   - game_progress: one aggregate row per (player, game).
//   - results: every finished session, feeding the leaderboards.
//
// RecordResult reads and upserts inside one transaction so concurrent reports
// for the same player cannot lose an attempt.

package progress

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type sqlStore struct {
	db *sql.DB
}

// NewSQLStore wraps an opened and migrated database.
func NewSQLStore(db *sql.DB) Store {
	return &sqlStore{db: db}
}

func (s *sqlStore) Load(ctx context.Context, playerID string) (Progress, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT game_id, completed, best_score, stars, attempts
        FROM game_progress
        WHERE player_id=?`, playerID)
	if err != nil {
		return Progress{}, err
	}
	defer rows.Close()

	p := Default()
	for rows.Next() {
		var (
			id string
			gp GameProgress
		)
		if err := rows.Scan(&id, &gp.Completed, &gp.BestScore, &gp.Stars, &gp.Attempts); err != nil {
			return Progress{}, err
		}
		p.Games[id] = gp
	}
	if err := rows.Err(); err != nil {
		return Progress{}, err
	}
	p.Recalculate()
	return p, nil
}

func (s *sqlStore) RecordResult(ctx context.Context, playerID, gameID string, r Result) (GameProgress, error) {
	if err := validate(r); err != nil {
		return GameProgress{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return GameProgress{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var cur GameProgress
	err = tx.QueryRowContext(ctx, `
        SELECT completed, best_score, stars, attempts
        FROM game_progress
        WHERE player_id=? AND game_id=?`, playerID, gameID,
	).Scan(&cur.Completed, &cur.BestScore, &cur.Stars, &cur.Attempts)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return GameProgress{}, err
	}

	next := Fold(cur, r)
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO game_progress
            (player_id, game_id, completed, best_score, stars, attempts, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (player_id, game_id) DO UPDATE SET
            completed=excluded.completed,
            best_score=excluded.best_score,
            stars=excluded.stars,
            attempts=excluded.attempts,
            updated_at=excluded.updated_at`,
		playerID, gameID, next.Completed, next.BestScore, next.Stars, next.Attempts, now,
	); err != nil {
		return GameProgress{}, err
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO results
            (player_id, game_id, difficulty, score, total_rounds, stars, best_streak, elapsed_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		playerID, gameID, r.Difficulty, r.Score, r.TotalRounds, r.Stars, r.BestStreak, r.Elapsed.Milliseconds(), now,
	); err != nil {
		return GameProgress{}, err
	}

	if err := tx.Commit(); err != nil {
		return GameProgress{}, err
	}
	return next, nil
}

// Reset clears the aggregate rows. Past results stay on the leaderboards.
func (s *sqlStore) Reset(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM game_progress WHERE player_id=?`, playerID)
	return err
}

/**
 * Leaderboard fetches the best sessions for a game.
 *
 * - Ordered by rounded percentage DESC, then elapsed time ASC, then insertion order.
 * - Default limit is 20 if not specified.
 */
func (s *sqlStore) Leaderboard(ctx context.Context, gameID string, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT r.player_id, COALESCE(p.username, ''), r.score, r.total_rounds, r.stars, r.elapsed_ms
        FROM results r
        LEFT JOIN players p ON p.id = r.player_id
        WHERE r.game_id=?
        ORDER BY CAST(ROUND(r.score * 100.0 / r.total_rounds) AS INTEGER) DESC, r.elapsed_ms ASC, r.id ASC
        LIMIT ?`, gameID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaderboardRow, 0, limit)
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.PlayerID, &row.Username, &row.Score, &row.Total, &row.Stars, &row.ElapsedMs); err != nil {
			return nil, err
		}
		row.Percentage = Percentage(row.Score, row.Total)
		out = append(out, row)
	}
	return out, rows.Err()
}
