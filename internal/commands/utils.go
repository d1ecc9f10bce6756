package commands

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
)

// ParseGuildID returns 0 for an empty or malformed id.
func ParseGuildID(guildID string) int64 {
	id, err := strconv.ParseInt(guildID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func subcommand(data discordgo.ApplicationCommandInteractionData) *discordgo.ApplicationCommandInteractionDataOption {
	if len(data.Options) == 0 {
		return nil
	}
	return data.Options[0]
}

func getIntOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *int64 {
	for _, o := range opts {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionInteger {
			v := o.IntValue()
			return &v
		}
	}
	return nil
}

func getStringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *string {
	for _, o := range opts {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			v := o.StringValue()
			return &v
		}
	}
	return nil
}

// getUserID reads the raw snowflake of a user option.
func getUserID(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name != name {
			continue
		}
		if id, ok := o.Value.(string); ok {
			return id
		}
	}
	return ""
}

// splitNames splits a list of character names on whitespace and commas (ASCII, fullwidth
// and the Japanese 読点). Duplicates are dropped case-insensitively, keeping the first spelling.
func splitNames(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '，' || r == '、'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		k := strings.ToLower(f)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, f)
	}
	return out
}
