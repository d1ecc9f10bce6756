package commands

import "github.com/bwmarrin/discordgo"

func GetCommands() []*discordgo.ApplicationCommand {
	memberOpt := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "member",
		Description: "対象のメンバー",
		Required:    true,
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:         "diamond",
			Description:  "ダイヤを出席率に応じて分配します",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "open",
					Description: "分配セッションを開始します",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "budget",
					Description: "分配するダイヤ総数を設定します (分配はリセットされます)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "amount",
							Description: "ダイヤ総数",
							Required:    true,
							MinValue:    floatPtr(0),
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "distribute",
					Description: "出席率に比例して自動分配します",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "nudge",
					Description: "メンバーの分配を1人分だけ増減します",
					Options: []*discordgo.ApplicationCommandOption{
						memberOpt,
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "direction",
							Description: "増やす / 減らす",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "増やす", Value: "up"},
								{Name: "減らす", Value: "down"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set",
					Description: "メンバーの分配を直接指定します (超過分は他メンバーから差し引きます)",
					Options: []*discordgo.ApplicationCommandOption{
						memberOpt,
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "diamonds",
							Description: "ダイヤ数",
							Required:    true,
							MinValue:    floatPtr(0),
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reset",
					Description: "分配とダイヤ総数をリセットします",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "現在の分配を表示します",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "order",
							Description: "出席率の並び順",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "高い順", Value: "desc"},
								{Name: "低い順", Value: "asc"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "export",
					Description: "分配結果をCSVで出力します",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "commit",
					Description: "分配結果を確定して記録します",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reload",
					Description: "メンバーと出席率を読み込み直します",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "close",
					Description: "確定せずに分配セッションを破棄します",
				},
			},
		},
		{
			Name:         "member",
			Description:  "ギルドメンバー登録",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "join",
					Description: "キャラクター名でメンバー登録します",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "character",
							Description: "キャラクター名",
							Required:    true,
							MaxLength:   32,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leave",
					Description: "メンバー登録を解除します",
				},
			},
		},
		{
			Name:         "bosskill",
			Description:  "ボス討伐と参加者を記録します",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "boss",
					Description: "ボス名",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "attendees",
					Description: "参加キャラクター名 (スペースまたはカンマ区切り)",
					Required:    true,
				},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func floatPtr(f float64) *float64 {
	return &f
}
