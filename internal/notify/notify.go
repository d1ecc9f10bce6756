// Package notify posts committed diamond rounds to a Discord channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/guildbot/internal/db"
	"github.com/susu3304/guildbot/internal/export"
	"github.com/susu3304/guildbot/internal/split"
	"go.uber.org/zap"
)

// Minimal session interface for sending channel messages.
type channelSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Notifier struct {
	session   channelSender
	channelID string
	logger    *zap.Logger

	attemptTimeout time.Duration
	maxAttempts    int
	pause          func() time.Duration
}

// New returns a Notifier posting to channelID. An empty channelID disables it.
func New(session channelSender, channelID string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		session:        session,
		channelID:      channelID,
		logger:         logger,
		attemptTimeout: 12 * time.Second,
		maxAttempts:    2,
		pause: func() time.Duration {
			return time.Duration(300+rand.Intn(500)) * time.Millisecond
		},
	}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.session != nil && n.channelID != ""
}

// RoundCommitted announces a committed round with its allocation table.
func (n *Notifier) RoundCommitted(ctx context.Context, round *db.Round, sum split.Summary) error {
	if !n.Enabled() {
		return nil
	}

	head := fmt.Sprintf("💎 <@%s> がダイヤ分配を確定しました (ID: `%s`)", round.CommittedBy, round.ID)
	msgs := append([]string{head}, export.Messages(sum, export.MessageLimit)...)
	for _, m := range msgs {
		if err := n.sendWithRetry(ctx, m); err != nil {
			n.logger.Warn("notify: failed to post round",
				zap.String("round_id", round.ID),
				zap.String("channel_id", n.channelID),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func (n *Notifier) sendWithRetry(ctx context.Context, content string) error {
	var lastErr error
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, n.attemptTimeout)
		_, err := n.session.ChannelMessageSend(n.channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}
		if attempt < n.maxAttempts {
			select {
			case <-time.After(n.pause()):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
