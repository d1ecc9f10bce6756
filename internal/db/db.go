package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// schema creates the member, attendance and diamond round tables. Character names are
// unique among active members only, so a name is free again after its owner leaves.
const schema = `
	CREATE TABLE IF NOT EXISTS guild_members (
		guild_id BIGINT NOT NULL,
		user_id TEXT NOT NULL,
		character_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		joined_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (guild_id, user_id)
	);
	DROP INDEX IF EXISTS idx_guild_members_character;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_guild_members_active_character
		ON guild_members(guild_id, lower(character_name))
		WHERE status = 'active';

	CREATE TABLE IF NOT EXISTS boss_kills (
		id BIGSERIAL PRIMARY KEY,
		guild_id BIGINT NOT NULL,
		boss_name TEXT NOT NULL,
		killed_at TIMESTAMPTZ NOT NULL,
		recorded_by TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_boss_kills_guild_time ON boss_kills(guild_id, killed_at);

	CREATE TABLE IF NOT EXISTS boss_kill_attendees (
		kill_id BIGINT NOT NULL REFERENCES boss_kills(id) ON DELETE CASCADE,
		character_name TEXT NOT NULL,
		PRIMARY KEY (kill_id, character_name)
	);

	CREATE TABLE IF NOT EXISTS diamond_rounds (
		id UUID PRIMARY KEY,
		guild_id BIGINT NOT NULL,
		budget BIGINT NOT NULL,
		total BIGINT NOT NULL,
		committed_by TEXT NOT NULL,
		committed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_diamond_rounds_guild ON diamond_rounds(guild_id, committed_at DESC);

	CREATE TABLE IF NOT EXISTS diamond_round_entries (
		round_id UUID NOT NULL REFERENCES diamond_rounds(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		character_name TEXT NOT NULL,
		attendance_rate DOUBLE PRECISION NOT NULL,
		diamonds BIGINT NOT NULL,
		PRIMARY KEY (round_id, user_id)
	);
`

// RunMigrations applies schema. Every statement is idempotent.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, schema)
	return err
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
