package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
    match_id UUID NOT NULL,
    game_number INTEGER NOT NULL,
    games_total INTEGER NOT NULL,
    map_name TEXT NOT NULL DEFAULT '',
    winner_team INTEGER NOT NULL,
    duration_ms BIGINT NOT NULL,
    played_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (match_id, game_number)
);
CREATE TABLE IF NOT EXISTS round_players (
    match_id UUID NOT NULL,
    game_number INTEGER NOT NULL,
    player_number INTEGER NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    team INTEGER NOT NULL,
    is_ai BOOLEAN NOT NULL DEFAULT false,
    kills INTEGER NOT NULL DEFAULT 0,
    won BOOLEAN NOT NULL DEFAULT false,
    total_kills INTEGER NOT NULL DEFAULT 0,
    total_wins INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (match_id, game_number, player_number),
    FOREIGN KEY (match_id, game_number) REFERENCES rounds (match_id, game_number) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_round_players_name ON round_players(name);
`

// PostgresStore implements ResultStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// SaveRound inserts a round and its player lines in one transaction.
func (s *PostgresStore) SaveRound(ctx context.Context, r RoundResult) error {
	if r.PlayedAt.IsZero() {
		r.PlayedAt = time.Now()
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO rounds (match_id, game_number, games_total, map_name, winner_team, duration_ms, played_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.MatchID, r.GameNumber, r.GamesTotal, r.MapName, r.WinnerTeam, r.Duration.Milliseconds(), r.PlayedAt)
		if err != nil {
			return fmt.Errorf("insert round: %w", err)
		}

		batch := &pgx.Batch{}
		for _, p := range r.Players {
			batch.Queue(
				`INSERT INTO round_players (match_id, game_number, player_number, name, team, is_ai, kills, won, total_kills, total_wins)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				r.MatchID, r.GameNumber, p.Number, p.Name, p.Team, p.AI, p.Kills, p.Won, p.TotalKills, p.TotalWins)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert round players: %w", err)
		}
		return nil
	})
}

// Rounds returns the rounds of a match ordered by game number.
func (s *PostgresStore) Rounds(ctx context.Context, matchID uuid.UUID) ([]RoundResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT match_id, game_number, games_total, map_name, winner_team, duration_ms, played_at
		 FROM rounds WHERE match_id = $1 ORDER BY game_number`, matchID)
	if err != nil {
		return nil, err
	}
	rounds, err := pgx.CollectRows(rows, scanRound)
	if err != nil {
		return nil, err
	}

	for i := range rounds {
		rows, err := s.pool.Query(ctx,
			`SELECT player_number, name, team, is_ai, kills, won, total_kills, total_wins
			 FROM round_players WHERE match_id = $1 AND game_number = $2 ORDER BY player_number`,
			matchID, rounds[i].GameNumber)
		if err != nil {
			return nil, err
		}
		rounds[i].Players, err = pgx.CollectRows(rows, scanPlayerResult)
		if err != nil {
			return nil, err
		}
	}
	return rounds, nil
}

// Leaderboard aggregates human players by name, best first.
func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT name, COUNT(*), COALESCE(SUM(kills), 0), COUNT(*) FILTER (WHERE won)
		 FROM round_players WHERE NOT is_ai AND name <> ''
		 GROUP BY name
		 ORDER BY 4 DESC, 3 DESC, name
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (LeaderboardEntry, error) {
		var e LeaderboardEntry
		err := row.Scan(&e.Name, &e.Rounds, &e.Kills, &e.Wins)
		return e, err
	})
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanRound(row pgx.CollectableRow) (RoundResult, error) {
	var r RoundResult
	var durationMs int64
	err := row.Scan(&r.MatchID, &r.GameNumber, &r.GamesTotal, &r.MapName, &r.WinnerTeam, &durationMs, &r.PlayedAt)
	r.Duration = time.Duration(durationMs) * time.Millisecond
	return r, err
}

func scanPlayerResult(row pgx.CollectableRow) (PlayerResult, error) {
	var p PlayerResult
	err := row.Scan(&p.Number, &p.Name, &p.Team, &p.AI, &p.Kills, &p.Won, &p.TotalKills, &p.TotalWins)
	return p, err
}
