package commands

import (
	"context"
	"io"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/guildbot/internal/db"
	"github.com/susu3304/guildbot/internal/split"
	"go.uber.org/zap"
)

type MemberStore interface {
	UpsertMember(ctx context.Context, guildID int64, userID, characterName string) error
	SetMemberStatus(ctx context.Context, guildID int64, userID, status string) error
}

type KillStore interface {
	RecordBossKill(ctx context.Context, kill db.BossKill) (int64, error)
}

type RoundNotifier interface {
	RoundCommitted(ctx context.Context, round *db.Round, sum split.Summary) error
}

// Handler answers the guild slash commands.
type Handler struct {
	split    *split.Service
	members  MemberStore
	kills    KillStore
	notifier RoundNotifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewHandler(svc *split.Service, members MemberStore, kills KillStore, notifier RoundNotifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		split:    svc,
		members:  members,
		kills:    kills,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle dispatches an application command. It reports false for commands it does not own.
func (h *Handler) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	data := i.ApplicationCommandData()
	guildID := ParseGuildID(i.GuildID)
	userID := interactionUserID(i)
	ctx := context.Background()

	var r reply
	switch data.Name {
	case "diamond":
		r = h.runDiamond(ctx, guildID, userID, subcommand(data))
	case "member":
		r = h.runMember(ctx, guildID, userID, subcommand(data))
	case "bosskill":
		r = h.runBossKill(ctx, guildID, userID, data.Options)
	default:
		return false
	}

	h.send(s, i, r)
	return true
}

// reply is what a command produced: one or more messages and an optional attachment.
type reply struct {
	messages []string
	file     *attachment
}

type attachment struct {
	name        string
	contentType string
	body        io.Reader
}

func textReply(content string) reply {
	return reply{messages: []string{content}}
}

func (h *Handler) send(s *discordgo.Session, i *discordgo.InteractionCreate, r reply) {
	if len(r.messages) == 0 {
		r.messages = []string{"完了しました"}
	}

	data := &discordgo.InteractionResponseData{Content: r.messages[0]}
	if r.file != nil {
		data.Files = []*discordgo.File{{
			Name:        r.file.name,
			ContentType: r.file.contentType,
			Reader:      r.file.body,
		}}
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		h.logger.Warn("commands: failed to respond", zap.String("guild_id", i.GuildID), zap.Error(err))
		return
	}

	for _, m := range r.messages[1:] {
		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: m}); err != nil {
			h.logger.Warn("commands: failed to send followup", zap.String("guild_id", i.GuildID), zap.Error(err))
			return
		}
	}
}
