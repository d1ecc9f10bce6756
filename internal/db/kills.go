package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type BossKill struct {
	ID         int64     `json:"id"`
	GuildID    int64     `json:"guild_id"`
	BossName   string    `json:"boss_name"`
	KilledAt   time.Time `json:"killed_at"`
	RecordedBy string    `json:"recorded_by"`
	Attendees  []string  `json:"attendees"`
}

// Attendance is the number of kills each character attended within a window.
// ByCharacter keys are lower-cased character names.
type Attendance struct {
	TotalKills  int
	ByCharacter map[string]int
}

// RecordBossKill stores a kill and its attendees in one transaction.
func (db *DB) RecordBossKill(ctx context.Context, kill BossKill) (int64, error) {
	if strings.TrimSpace(kill.BossName) == "" {
		return 0, fmt.Errorf("boss name is required")
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO boss_kills (guild_id, boss_name, killed_at, recorded_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		kill.GuildID, kill.BossName, kill.KilledAt, kill.RecordedBy,
	).Scan(&id); err != nil {
		return 0, translate(err)
	}

	for _, name := range kill.Attendees {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO boss_kill_attendees (kill_id, character_name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			id, name,
		); err != nil {
			return 0, translate(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// AttendanceSince counts kills since the given time and how many of them each character attended.
func (db *DB) AttendanceSince(ctx context.Context, guildID int64, since time.Time) (*Attendance, error) {
	att := &Attendance{ByCharacter: make(map[string]int)}

	if err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM boss_kills WHERE guild_id = $1 AND killed_at >= $2`,
		guildID, since,
	).Scan(&att.TotalKills); err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx,
		`SELECT lower(a.character_name), COUNT(DISTINCT k.id)
		 FROM boss_kill_attendees a
		 JOIN boss_kills k ON k.id = a.kill_id
		 WHERE k.guild_id = $1 AND k.killed_at >= $2
		 GROUP BY lower(a.character_name)`,
		guildID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		att.ByCharacter[name] = count
	}
	return att, rows.Err()
}
