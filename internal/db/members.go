package db

import (
	"context"
	"time"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type GuildMember struct {
	GuildID       int64     `json:"guild_id"`
	UserID        string    `json:"user_id"`
	CharacterName string    `json:"character_name"`
	Status        string    `json:"status"`
	JoinedAt      time.Time `json:"joined_at"`
}

// UpsertMember registers a member or renames their character, reactivating them.
func (db *DB) UpsertMember(ctx context.Context, guildID int64, userID, characterName string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO guild_members (guild_id, user_id, character_name, status)
		 VALUES ($1, $2, $3, 'active')
		 ON CONFLICT (guild_id, user_id) DO UPDATE
		 SET character_name = EXCLUDED.character_name, status = 'active'`,
		guildID, userID, characterName,
	)
	return translate(err)
}

func (db *DB) SetMemberStatus(ctx context.Context, guildID int64, userID, status string) error {
	result, err := db.pool.Exec(ctx,
		"UPDATE guild_members SET status = $3 WHERE guild_id = $1 AND user_id = $2",
		guildID, userID, status,
	)
	if err != nil {
		return translate(err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ActiveMembers(ctx context.Context, guildID int64) ([]GuildMember, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT guild_id, user_id, character_name, status, joined_at
		 FROM guild_members
		 WHERE guild_id = $1 AND status = 'active'
		 ORDER BY character_name`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []GuildMember
	for rows.Next() {
		var m GuildMember
		if err := rows.Scan(&m.GuildID, &m.UserID, &m.CharacterName, &m.Status, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// RegisteredGuildIDs lists guilds with at least one active member.
func (db *DB) RegisteredGuildIDs(ctx context.Context) ([]int64, error) {
	rows, err := db.pool.Query(ctx,
		"SELECT DISTINCT guild_id FROM guild_members WHERE status = 'active' ORDER BY guild_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
