package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/guildbot/internal/commands"
	"go.uber.org/zap"
)

type Bot struct {
	session  *discordgo.Session
	commands *commands.Handler
	logger   *zap.Logger
}

// New creates the gateway session. Call SetHandler before Start.
func New(token string, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bot := &Bot{
		session: session,
		logger:  logger,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds

	return bot, nil
}

// Session is the underlying gateway session, shared with the round notifier.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

func (b *Bot) SetHandler(h *commands.Handler) {
	b.commands = h
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.logger.Info("bot: discord session open")
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}
