package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/guildbot/internal/allocator"
	"github.com/susu3304/guildbot/internal/db"
)

func TestRates(t *testing.T) {
	members := []Member{
		{ID: "1", Name: "Aria"},
		{ID: "2", Name: "ブラム"},
		{ID: "3", Name: "Cato"},
	}

	tests := []struct {
		name     string
		attended map[string]int
		total    int
		want     []Member
	}{
		{
			name:     "case-insensitive names",
			attended: map[string]int{"aria": 3, "ブラム": 1},
			total:    4,
			want: []Member{
				{ID: "1", Name: "Aria", AttendanceCount: 3, AttendanceRate: 0.75},
				{ID: "2", Name: "ブラム", AttendanceCount: 1, AttendanceRate: 0.25},
				{ID: "3", Name: "Cato"},
			},
		},
		{
			name:     "no kills",
			attended: map[string]int{"aria": 3},
			total:    0,
			want: []Member{
				{ID: "1", Name: "Aria", AttendanceCount: 3},
				{ID: "2", Name: "ブラム"},
				{ID: "3", Name: "Cato"},
			},
		},
		{
			name:     "capped at one",
			attended: map[string]int{"Aria": 2, " ARIA ": 2},
			total:    3,
			want: []Member{
				{ID: "1", Name: "Aria", AttendanceCount: 4, AttendanceRate: 1},
				{ID: "2", Name: "ブラム"},
				{ID: "3", Name: "Cato"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rates(members, tt.attended, tt.total)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Rates() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	assert.Zero(t, members[0].AttendanceCount, "input must not be modified")
}

func TestParticipants(t *testing.T) {
	got := Participants([]Member{{ID: "1", Name: "Aria", AttendanceCount: 3, AttendanceRate: 0.5}})
	assert.Equal(t, []allocator.Participant{{ID: "1", Name: "Aria", Weight: 0.5}}, got)
}

func TestParseFile(t *testing.T) {
	src, err := ParseFile([]byte(`members:
  - id: "1"
    name: Aria
    count: 9
    rate: 0.9
  - name: Bram
    rate: -0.5
  - id: "x"
`))
	require.NoError(t, err)

	got, err := src.Members(context.Background(), 0)
	require.NoError(t, err)
	want := []Member{
		{ID: "1", Name: "Aria", AttendanceCount: 9, AttendanceRate: 0.9},
		{ID: "Bram", Name: "Bram"},
		{ID: "x", Name: "x"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Members() mismatch (-want +got):\n%s", diff)
	}

	got[0].Name = "changed"
	again, _ := src.Members(context.Background(), 0)
	assert.Equal(t, "Aria", again[0].Name)
}

func TestParseFileErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not yaml", "members: [unterminated"},
		{"duplicate id", "members:\n  - id: a\n  - id: a\n"},
		{"anonymous entry", "members:\n  - rate: 0.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFile([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

type fakeMemberStore struct {
	members []db.GuildMember
	att     *db.Attendance
	since   time.Time
	err     error
}

func (f *fakeMemberStore) ActiveMembers(ctx context.Context, guildID int64) ([]db.GuildMember, error) {
	return f.members, f.err
}

func (f *fakeMemberStore) AttendanceSince(ctx context.Context, guildID int64, since time.Time) (*db.Attendance, error) {
	f.since = since
	return f.att, nil
}

func TestDBSource(t *testing.T) {
	store := &fakeMemberStore{
		members: []db.GuildMember{
			{UserID: "100", CharacterName: "Aria"},
			{UserID: "200", CharacterName: "Bram"},
		},
		att: &db.Attendance{TotalKills: 2, ByCharacter: map[string]int{"aria": 2, "bram": 1}},
	}
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	src := NewDBSource(store, 0)
	src.now = func() time.Time { return now }

	got, err := src.Members(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []Member{
		{ID: "100", Name: "Aria", AttendanceCount: 2, AttendanceRate: 1},
		{ID: "200", Name: "Bram", AttendanceCount: 1, AttendanceRate: 0.5},
	}, got)
	assert.Equal(t, now.Add(-DefaultWindow), store.since)

	store.err = errors.New("connection refused")
	_, err = src.Members(context.Background(), 1)
	assert.ErrorContains(t, err, "failed to load members")
}
