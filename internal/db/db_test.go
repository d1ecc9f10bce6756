package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("query: %w", pgx.ErrNoRows)), ErrNotFound)

	dup := translate(&pgconn.PgError{Code: "23505", ConstraintName: "idx_guild_members_active_character"})
	assert.ErrorIs(t, dup, ErrDuplicate)
	assert.ErrorContains(t, dup, "idx_guild_members_active_character")

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
	assert.NotErrorIs(t, translate(&pgconn.PgError{Code: "23503"}), ErrDuplicate)
}

func TestSchemaCharacterNamesUniqueAmongActive(t *testing.T) {
	assert.Contains(t, schema, "DROP INDEX IF EXISTS idx_guild_members_character;")
	assert.Regexp(t, `ON guild_members\(guild_id, lower\(character_name\)\)\s+WHERE status = 'active'`, schema)
}
