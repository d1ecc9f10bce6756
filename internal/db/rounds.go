package db

import (
	"context"
	"time"
)

// Round is a committed diamond allocation.
type Round struct {
	ID          string       `json:"id"`
	GuildID     int64        `json:"guild_id"`
	Budget      int64        `json:"budget"`
	Total       int64        `json:"total"`
	CommittedBy string       `json:"committed_by"`
	CommittedAt time.Time    `json:"committed_at"`
	Entries     []RoundEntry `json:"entries,omitempty"`
}

type RoundEntry struct {
	UserID         string  `json:"user_id"`
	CharacterName  string  `json:"character_name"`
	AttendanceRate float64 `json:"attendance_rate"`
	Diamonds       int64   `json:"diamonds"`
}

// SaveRound writes a round and its entries in one transaction.
func (db *DB) SaveRound(ctx context.Context, round Round) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO diamond_rounds (id, guild_id, budget, total, committed_by, committed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		round.ID, round.GuildID, round.Budget, round.Total, round.CommittedBy, round.CommittedAt,
	); err != nil {
		return translate(err)
	}

	for _, e := range round.Entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO diamond_round_entries (round_id, user_id, character_name, attendance_rate, diamonds)
			 VALUES ($1, $2, $3, $4, $5)`,
			round.ID, e.UserID, e.CharacterName, e.AttendanceRate, e.Diamonds,
		); err != nil {
			return translate(err)
		}
	}

	return tx.Commit(ctx)
}

// ListRounds returns the most recent rounds of a guild without their entries.
func (db *DB) ListRounds(ctx context.Context, guildID int64, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id::text, guild_id, budget, total, committed_by, committed_at
		 FROM diamond_rounds
		 WHERE guild_id = $1
		 ORDER BY committed_at DESC
		 LIMIT $2`,
		guildID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var r Round
		if err := rows.Scan(&r.ID, &r.GuildID, &r.Budget, &r.Total, &r.CommittedBy, &r.CommittedAt); err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// RoundEntries returns the entries of a round committed in guildID. A round of another
// guild yields no entries.
func (db *DB) RoundEntries(ctx context.Context, guildID int64, roundID string) ([]RoundEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT e.user_id, e.character_name, e.attendance_rate, e.diamonds
		 FROM diamond_round_entries e
		 JOIN diamond_rounds r ON r.id = e.round_id
		 WHERE e.round_id = $1 AND r.guild_id = $2
		 ORDER BY e.diamonds DESC, e.character_name`,
		roundID, guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []RoundEntry
	for rows.Next() {
		var e RoundEntry
		if err := rows.Scan(&e.UserID, &e.CharacterName, &e.AttendanceRate, &e.Diamonds); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
