package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/guildbot/internal/allocator"
	"github.com/susu3304/guildbot/internal/export"
	"github.com/susu3304/guildbot/internal/split"
	"go.uber.org/zap"
)

func (h *Handler) runDiamond(ctx context.Context, guildID int64, userID string, sub *discordgo.ApplicationCommandInteractionDataOption) reply {
	if guildID == 0 {
		return textReply("サーバー内で実行してください")
	}
	if sub == nil {
		return textReply("サブコマンドが指定されていません")
	}

	var (
		sum   split.Summary
		err   error
		title string
	)
	switch sub.Name {
	case "open":
		sum, err = h.split.Open(ctx, guildID, userID)
		title = fmt.Sprintf("分配セッションを開始しました (%d名)", len(sum.Members))
	case "budget":
		amount := getIntOption(sub.Options, "amount")
		if amount == nil {
			return textReply("amount の指定が必要です")
		}
		sum, err = h.split.SetBudget(guildID, userID, *amount)
		title = fmt.Sprintf("ダイヤ総数を %d に設定しました", *amount)
	case "distribute":
		sum, err = h.split.Distribute(guildID, userID)
		title = "出席率に応じて分配しました"
	case "nudge":
		memberID := getUserID(sub.Options, "member")
		dir := allocator.Up
		if d := getStringOption(sub.Options, "direction"); d != nil && *d == "down" {
			dir = allocator.Down
		}
		sum, err = h.split.Nudge(guildID, userID, memberID, dir)
		title = fmt.Sprintf("<@%s> の分配を調整しました", memberID)
	case "set":
		memberID := getUserID(sub.Options, "member")
		diamonds := getIntOption(sub.Options, "diamonds")
		if memberID == "" || diamonds == nil {
			return textReply("member と diamonds の指定が必要です")
		}
		sum, err = h.split.Override(guildID, userID, memberID, *diamonds)
		title = fmt.Sprintf("<@%s> の分配を %d に設定しました", memberID, *diamonds)
	case "reset":
		sum, err = h.split.Reset(guildID, userID)
		title = "分配をリセットしました"
	case "reload":
		sum, err = h.split.Reload(ctx, guildID, userID)
		title = "メンバーと出席率を読み込み直しました"
	case "status":
		order := split.OrderDesc
		if o := getStringOption(sub.Options, "order"); o != nil {
			order = split.ParseOrder(*o)
		}
		sum, err = h.split.Snapshot(guildID, userID, order)
	case "export":
		return h.exportCSV(guildID, userID)
	case "commit":
		return h.commit(ctx, guildID, userID)
	case "close":
		if err := h.split.Close(guildID, userID); err != nil {
			return h.errorReply(err, zap.String("subcommand", "close"), zap.Int64("guild_id", guildID))
		}
		return textReply("分配セッションを破棄しました")
	default:
		return textReply("未知のサブコマンドです")
	}

	if err != nil {
		return h.errorReply(err, zap.String("subcommand", sub.Name), zap.Int64("guild_id", guildID))
	}
	return reply{messages: withTitle(title, export.Messages(sum, export.MessageLimit))}
}

func (h *Handler) exportCSV(guildID int64, userID string) reply {
	sum, err := h.split.Snapshot(guildID, userID, split.OrderDesc)
	if err != nil {
		return h.errorReply(err, zap.String("subcommand", "export"), zap.Int64("guild_id", guildID))
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, sum); err != nil {
		return h.errorReply(err, zap.String("subcommand", "export"), zap.Int64("guild_id", guildID))
	}
	return reply{
		messages: []string{fmt.Sprintf("CSVを出力しました (%d名)", len(sum.Members))},
		file: &attachment{
			name:        export.FileName(h.now()),
			contentType: "text/csv",
			body:        &buf,
		},
	}
}

func (h *Handler) commit(ctx context.Context, guildID int64, userID string) reply {
	round, sum, err := h.split.Commit(ctx, guildID, userID)
	if err != nil {
		return h.errorReply(err, zap.String("subcommand", "commit"), zap.Int64("guild_id", guildID))
	}

	msg := fmt.Sprintf("分配を確定しました (ID: `%s`, 合計 %d / %d)", round.ID, round.Total, round.Budget)
	if h.notifier != nil {
		if err := h.notifier.RoundCommitted(ctx, round, sum); err != nil {
			h.logger.Warn("commands: round announcement failed", zap.String("round_id", round.ID), zap.Error(err))
			msg += "\nお知らせチャンネルへの投稿に失敗しました"
		}
	}
	return textReply(msg)
}

// errorReply turns known errors into their message and logs everything else.
func (h *Handler) errorReply(err error, fields ...zap.Field) reply {
	for _, known := range []error{
		split.ErrNoSession,
		split.ErrUnknownMember,
		split.ErrInvalidBudget,
		split.ErrEmptyRoster,
		split.ErrNothingToCommit,
		split.ErrOverBudget,
	} {
		if errors.Is(err, known) {
			return textReply(known.Error())
		}
	}
	h.logger.Error("commands: command failed", append(fields, zap.Error(err))...)
	return textReply("処理に失敗しました")
}

// withTitle puts title above the first message when it fits, otherwise in its own message.
func withTitle(title string, msgs []string) []string {
	if title == "" {
		return msgs
	}
	if len(msgs) > 0 && len(title)+1+len(msgs[0]) <= export.MessageLimit {
		return append([]string{title + "\n" + msgs[0]}, msgs[1:]...)
	}
	return append([]string{title}, msgs...)
}
