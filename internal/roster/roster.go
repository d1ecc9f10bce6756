package roster

import (
	"context"
	"strings"

	"github.com/susu3304/guildbot/internal/allocator"
)

// Member is one active guild member as the diamond calculator sees them.
type Member struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	AttendanceCount int     `json:"attendance_count" yaml:"count"`
	AttendanceRate  float64 `json:"attendance_rate" yaml:"rate"`
}

// Source provides the members of a guild with their attendance already resolved.
type Source interface {
	Members(ctx context.Context, guildID int64) ([]Member, error)
}

// Rates fills AttendanceCount and AttendanceRate from per-character attendance counts.
// Character names match case-insensitively. With no kills in the window every rate is 0.
func Rates(members []Member, attended map[string]int, totalKills int) []Member {
	byName := make(map[string]int, len(attended))
	for name, n := range attended {
		byName[normalizeName(name)] += n
	}

	out := make([]Member, len(members))
	for i, m := range members {
		m.AttendanceCount = byName[normalizeName(m.Name)]
		m.AttendanceRate = 0
		if totalKills > 0 {
			m.AttendanceRate = float64(m.AttendanceCount) / float64(totalKills)
			if m.AttendanceRate > 1 {
				m.AttendanceRate = 1
			}
		}
		out[i] = m
	}
	return out
}

// Participants converts members to allocator input with zero allocations.
func Participants(members []Member) []allocator.Participant {
	out := make([]allocator.Participant, len(members))
	for i, m := range members {
		out[i] = allocator.Participant{ID: m.ID, Name: m.Name, Weight: m.AttendanceRate}
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
