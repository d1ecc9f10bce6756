package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/susu3304/guildbot/internal/db"
)

// DefaultWindow is how far back boss kills count towards attendance.
const DefaultWindow = 14 * 24 * time.Hour

type memberStore interface {
	ActiveMembers(ctx context.Context, guildID int64) ([]db.GuildMember, error)
	AttendanceSince(ctx context.Context, guildID int64, since time.Time) (*db.Attendance, error)
}

// DBSource reads active members and boss-kill attendance from Postgres.
type DBSource struct {
	store  memberStore
	window time.Duration
	now    func() time.Time
}

func NewDBSource(store memberStore, window time.Duration) *DBSource {
	if window <= 0 {
		window = DefaultWindow
	}
	return &DBSource{store: store, window: window, now: time.Now}
}

func (s *DBSource) Members(ctx context.Context, guildID int64) ([]Member, error) {
	rows, err := s.store.ActiveMembers(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	att, err := s.store.AttendanceSince(ctx, guildID, s.now().Add(-s.window))
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}

	members := make([]Member, len(rows))
	for i, r := range rows {
		members[i] = Member{ID: r.UserID, Name: r.CharacterName}
	}
	return Rates(members, att.ByCharacter, att.TotalKills), nil
}
