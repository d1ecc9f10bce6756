// Package split keeps per-user diamond allocation workspaces and applies the allocator
// operations to them.
package split

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/susu3304/guildbot/internal/allocator"
	"github.com/susu3304/guildbot/internal/db"
	"github.com/susu3304/guildbot/internal/roster"
	"go.uber.org/zap"
)

var (
	ErrNoSession       = errors.New("分配セッションが開始されていません")
	ErrUnknownMember   = errors.New("対象のメンバーが見つかりません")
	ErrInvalidBudget   = errors.New("ダイヤ総数は正の整数で指定してください")
	ErrEmptyRoster     = errors.New("アクティブなメンバーがいません")
	ErrNothingToCommit = errors.New("分配されたダイヤがありません")
	ErrOverBudget      = errors.New("分配総量がダイヤ総数を超えています")
)

// DefaultTTL is how long an untouched session survives.
const DefaultTTL = 2 * time.Hour

type RoundStore interface {
	SaveRound(ctx context.Context, round db.Round) error
}

type Service struct {
	mu     sync.Mutex
	store  map[string]*Session
	roster roster.Source
	rounds RoundStore
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	stopChan chan struct{}
	done     chan struct{}
}

func NewService(src roster.Source, rounds RoundStore, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  make(map[string]*Session),
		roster: src,
		rounds: rounds,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
	}
}

func key(guildID int64, userID string) string {
	return fmt.Sprintf("%d:%s", guildID, userID)
}

// Open returns the caller's session, loading the guild roster if none exists yet.
func (s *Service) Open(ctx context.Context, guildID int64, userID string) (Summary, error) {
	s.mu.Lock()
	if sess, ok := s.store[key(guildID, userID)]; ok {
		sess.UpdatedAt = s.now()
		sum := sess.summary(OrderDesc)
		s.mu.Unlock()
		return sum, nil
	}
	s.mu.Unlock()

	members, err := s.roster.Members(ctx, guildID)
	if err != nil {
		return Summary{}, err
	}
	if len(members) == 0 {
		return Summary{}, ErrEmptyRoster
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have opened it while the roster was loading.
	if sess, ok := s.store[key(guildID, userID)]; ok {
		return sess.summary(OrderDesc), nil
	}
	sess := &Session{
		ID:         uuid.NewString(),
		GuildID:    guildID,
		OwnerID:    userID,
		Members:    roster.Participants(members),
		Attendance: attendanceCounts(members),
		UpdatedAt:  s.now(),
	}
	s.store[key(guildID, userID)] = sess
	s.logger.Debug("split: session opened",
		zap.String("session_id", sess.ID),
		zap.Int64("guild_id", guildID),
		zap.String("user_id", userID),
		zap.Int("members", len(sess.Members)),
	)
	return sess.summary(OrderDesc), nil
}

// Reload re-reads the roster. Members still on it keep their allocation, new members start
// at zero and members who left are dropped.
func (s *Service) Reload(ctx context.Context, guildID int64, userID string) (Summary, error) {
	if _, err := s.Snapshot(guildID, userID, OrderDesc); err != nil {
		return Summary{}, err
	}

	members, err := s.roster.Members(ctx, guildID)
	if err != nil {
		return Summary{}, err
	}
	if len(members) == 0 {
		return Summary{}, ErrEmptyRoster
	}

	return s.update(guildID, userID, func(sess *Session) error {
		prev := make(map[string]int64, len(sess.Members))
		for _, m := range sess.Members {
			prev[m.ID] = m.Allocation
		}
		next := roster.Participants(members)
		for i := range next {
			next[i].Allocation = prev[next[i].ID]
		}
		sess.Members = next
		sess.Attendance = attendanceCounts(members)
		return nil
	})
}

// SetBudget changes the budget and clears every allocation.
func (s *Service) SetBudget(guildID int64, userID string, budget int64) (Summary, error) {
	if budget < 0 {
		return Summary{}, ErrInvalidBudget
	}
	return s.update(guildID, userID, func(sess *Session) error {
		sess.Budget = budget
		sess.Members = allocator.Reset(sess.Members)
		return nil
	})
}

func (s *Service) Distribute(guildID int64, userID string) (Summary, error) {
	return s.update(guildID, userID, func(sess *Session) error {
		if sess.Budget <= 0 {
			return ErrInvalidBudget
		}
		sess.Members = allocator.Distribute(sess.Members, sess.Budget)
		return nil
	})
}

func (s *Service) Nudge(guildID int64, userID, memberID string, dir allocator.Direction) (Summary, error) {
	return s.update(guildID, userID, func(sess *Session) error {
		if sess.Budget <= 0 {
			return ErrInvalidBudget
		}
		if !hasMember(sess, memberID) {
			return ErrUnknownMember
		}
		sess.Members = allocator.Nudge(sess.Members, sess.Budget, memberID, dir)
		return nil
	})
}

func (s *Service) Override(guildID int64, userID, memberID string, value int64) (Summary, error) {
	return s.update(guildID, userID, func(sess *Session) error {
		if !hasMember(sess, memberID) {
			return ErrUnknownMember
		}
		sess.Members = allocator.Override(sess.Members, sess.Budget, memberID, value)
		return nil
	})
}

// Reset clears the allocations and the budget.
func (s *Service) Reset(guildID int64, userID string) (Summary, error) {
	return s.update(guildID, userID, func(sess *Session) error {
		sess.Budget = 0
		sess.Members = allocator.Reset(sess.Members)
		return nil
	})
}

func (s *Service) Snapshot(guildID int64, userID string, order Order) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.store[key(guildID, userID)]
	if !ok {
		return Summary{}, ErrNoSession
	}
	return sess.summary(order), nil
}

// Close discards the caller's session without committing it.
func (s *Service) Close(guildID int64, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.store[key(guildID, userID)]; !ok {
		return ErrNoSession
	}
	delete(s.store, key(guildID, userID))
	return nil
}

// Commit persists the current split as a round and returns it with the summary it was
// built from. The session stays open and may change as soon as Commit releases it.
func (s *Service) Commit(ctx context.Context, guildID int64, userID string) (*db.Round, Summary, error) {
	if s.rounds == nil {
		return nil, Summary{}, errors.New("round store is not configured")
	}
	sum, err := s.Snapshot(guildID, userID, OrderDesc)
	if err != nil {
		return nil, Summary{}, err
	}
	if sum.Total <= 0 {
		return nil, Summary{}, ErrNothingToCommit
	}
	if sum.OverBudget {
		return nil, Summary{}, ErrOverBudget
	}

	round := db.Round{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		Budget:      sum.Budget,
		Total:       sum.Total,
		CommittedBy: userID,
		CommittedAt: s.now().UTC(),
	}
	for _, m := range sum.Members {
		round.Entries = append(round.Entries, db.RoundEntry{
			UserID:         m.ID,
			CharacterName:  m.Name,
			AttendanceRate: m.AttendanceRate,
			Diamonds:       m.Diamonds,
		})
	}
	if err := s.rounds.SaveRound(ctx, round); err != nil {
		return nil, Summary{}, fmt.Errorf("failed to save round: %w", err)
	}

	s.logger.Info("split: round committed",
		zap.String("round_id", round.ID),
		zap.Int64("guild_id", guildID),
		zap.Int64("budget", round.Budget),
		zap.Int64("total", round.Total),
	)
	return &round, sum, nil
}

func (s *Service) update(guildID int64, userID string, fn func(*Session) error) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.store[key(guildID, userID)]
	if !ok {
		return Summary{}, ErrNoSession
	}
	if err := fn(sess); err != nil {
		return Summary{}, err
	}
	sess.UpdatedAt = s.now()
	return sess.summary(OrderDesc), nil
}

func hasMember(sess *Session, memberID string) bool {
	for _, m := range sess.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

func attendanceCounts(members []roster.Member) map[string]int {
	out := make(map[string]int, len(members))
	for _, m := range members {
		out[m.ID] = m.AttendanceCount
	}
	return out
}
