package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/guildbot/internal/db"
	"github.com/susu3304/guildbot/internal/split"
	"go.uber.org/goleak"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type fakeSender struct {
	fails    []error
	sent     []string
	channels []string
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if len(f.fails) > 0 {
		err := f.fails[0]
		f.fails = f.fails[1:]
		return nil, err
	}
	f.sent = append(f.sent, content)
	f.channels = append(f.channels, channelID)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func newTestNotifier(s *fakeSender) *Notifier {
	n := New(s, "chan-1", nil)
	n.pause = func() time.Duration { return 0 }
	return n
}

func testRound() (*db.Round, split.Summary) {
	round := &db.Round{ID: "r-1", CommittedBy: "42", Budget: 100, Total: 100}
	sum := split.Summary{
		Budget: 100,
		Total:  100,
		Members: []split.MemberView{
			{ID: "1", Name: "Aria", Diamonds: 100, Percent: 100},
		},
	}
	return round, sum
}

func TestRoundCommitted(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &fakeSender{}
	round, sum := testRound()
	require.NoError(t, newTestNotifier(s).RoundCommitted(context.Background(), round, sum))

	require.Len(t, s.sent, 2)
	assert.Contains(t, s.sent[0], "<@42>")
	assert.Contains(t, s.sent[0], "r-1")
	assert.True(t, strings.HasPrefix(s.sent[1], "```"))
	assert.Equal(t, []string{"chan-1", "chan-1"}, s.channels)
}

func TestRoundCommittedRetriesTimeouts(t *testing.T) {
	s := &fakeSender{fails: []error{timeoutErr{}}}
	round, sum := testRound()
	require.NoError(t, newTestNotifier(s).RoundCommitted(context.Background(), round, sum))
	assert.Len(t, s.sent, 2)
}

func TestRoundCommittedGivesUp(t *testing.T) {
	s := &fakeSender{fails: []error{timeoutErr{}, timeoutErr{}}}
	round, sum := testRound()
	err := newTestNotifier(s).RoundCommitted(context.Background(), round, sum)
	assert.ErrorIs(t, err, timeoutErr{})
	assert.Empty(t, s.sent)
}

func TestRoundCommittedPermanentError(t *testing.T) {
	permanent := errors.New("403 Forbidden")
	s := &fakeSender{fails: []error{permanent, nil}}
	round, sum := testRound()
	err := newTestNotifier(s).RoundCommitted(context.Background(), round, sum)
	assert.ErrorIs(t, err, permanent)
}

func TestDisabledNotifier(t *testing.T) {
	s := &fakeSender{}
	n := New(s, "", nil)
	assert.False(t, n.Enabled())
	round, sum := testRound()
	require.NoError(t, n.RoundCommitted(context.Background(), round, sum))
	assert.Empty(t, s.sent)

	var nilNotifier *Notifier
	assert.False(t, nilNotifier.Enabled())
}
