package split

import (
	"time"

	"github.com/susu3304/guildbot/internal/allocator"
)

// Session is one user's in-progress diamond split for a guild.
type Session struct {
	ID         string
	GuildID    int64
	OwnerID    string
	Budget     int64
	Members    []allocator.Participant
	Attendance map[string]int
	UpdatedAt  time.Time
}

// MemberView is a single row of a Summary.
type MemberView struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	AttendanceCount int     `json:"attendance_count"`
	AttendanceRate  float64 `json:"attendance_rate"`
	Diamonds        int64   `json:"diamonds"`
	Percent         float64 `json:"percent"`
}

// Summary is a read-only copy of a session for display and export.
type Summary struct {
	SessionID  string       `json:"session_id"`
	GuildID    int64        `json:"guild_id,string"`
	Budget     int64        `json:"budget"`
	Total      int64        `json:"total"`
	Remaining  int64        `json:"remaining"`
	OverBudget bool         `json:"over_budget"`
	UnitShare  int64        `json:"unit_share"`
	Members    []MemberView `json:"members"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type Order int

const (
	OrderDesc Order = iota
	OrderAsc
)

// ParseOrder accepts "asc" and treats everything else as descending.
func ParseOrder(s string) Order {
	if s == "asc" {
		return OrderAsc
	}
	return OrderDesc
}

func (s *Session) summary(order Order) Summary {
	members := allocator.SortByWeight(s.Members, order == OrderDesc)
	views := make([]MemberView, len(members))
	for i, m := range members {
		views[i] = MemberView{
			ID:              m.ID,
			Name:            m.Name,
			AttendanceCount: s.Attendance[m.ID],
			AttendanceRate:  m.Weight,
			Diamonds:        m.Allocation,
			Percent:         allocator.Percent(m.Allocation, s.Budget),
		}
	}
	return Summary{
		SessionID:  s.ID,
		GuildID:    s.GuildID,
		Budget:     s.Budget,
		Total:      allocator.Total(s.Members),
		Remaining:  allocator.Remaining(s.Members, s.Budget),
		OverBudget: allocator.OverBudget(s.Members, s.Budget),
		UnitShare:  allocator.UnitShare(s.Budget, len(s.Members)),
		Members:    views,
		UpdatedAt:  s.UpdatedAt,
	}
}
