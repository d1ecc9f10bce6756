package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/guildbot/internal/db"
	"go.uber.org/zap"
)

func (h *Handler) runMember(ctx context.Context, guildID int64, userID string, sub *discordgo.ApplicationCommandInteractionDataOption) reply {
	if guildID == 0 {
		return textReply("サーバー内で実行してください")
	}
	if sub == nil {
		return textReply("サブコマンドが指定されていません")
	}

	switch sub.Name {
	case "join":
		name := getStringOption(sub.Options, "character")
		if name == nil || strings.TrimSpace(*name) == "" {
			return textReply("キャラクター名の指定が必要です")
		}
		character := strings.TrimSpace(*name)
		err := h.members.UpsertMember(ctx, guildID, userID, character)
		if errors.Is(err, db.ErrDuplicate) {
			return textReply(fmt.Sprintf("「%s」は既に別のメンバーが登録しています", character))
		}
		if err != nil {
			h.logger.Error("commands: member join failed", zap.Int64("guild_id", guildID), zap.Error(err))
			return textReply("メンバー登録に失敗しました")
		}
		return textReply(fmt.Sprintf("<@%s> を「%s」として登録しました", userID, character))
	case "leave":
		err := h.members.SetMemberStatus(ctx, guildID, userID, db.StatusInactive)
		if errors.Is(err, db.ErrNotFound) {
			return textReply("メンバー登録されていません")
		}
		if err != nil {
			h.logger.Error("commands: member leave failed", zap.Int64("guild_id", guildID), zap.Error(err))
			return textReply("登録解除に失敗しました")
		}
		return textReply("メンバー登録を解除しました")
	default:
		return textReply("未知のサブコマンドです")
	}
}

func (h *Handler) runBossKill(ctx context.Context, guildID int64, userID string, opts []*discordgo.ApplicationCommandInteractionDataOption) reply {
	if guildID == 0 {
		return textReply("サーバー内で実行してください")
	}

	boss := getStringOption(opts, "boss")
	attendees := getStringOption(opts, "attendees")
	if boss == nil || strings.TrimSpace(*boss) == "" || attendees == nil {
		return textReply("boss と attendees の指定が必要です")
	}
	names := splitNames(*attendees)
	if len(names) == 0 {
		return textReply("参加者を認識できませんでした")
	}

	id, err := h.kills.RecordBossKill(ctx, db.BossKill{
		GuildID:    guildID,
		BossName:   strings.TrimSpace(*boss),
		KilledAt:   h.now().UTC(),
		RecordedBy: userID,
		Attendees:  names,
	})
	if err != nil {
		h.logger.Error("commands: boss kill not recorded", zap.Int64("guild_id", guildID), zap.Error(err))
		return textReply("討伐の記録に失敗しました")
	}

	h.logger.Info("commands: boss kill recorded",
		zap.Int64("guild_id", guildID),
		zap.Int64("kill_id", id),
		zap.Int("attendees", len(names)),
	)
	return textReply(fmt.Sprintf("「%s」の討伐を記録しました (参加 %d名: %s)", strings.TrimSpace(*boss), len(names), strings.Join(names, ", ")))
}
