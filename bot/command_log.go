package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jrsteele09/wilbur/internal/utils"
	"github.com/rs/zerolog/log"
)

// NowTimeFunc is used for the command log timestamp.
var NowTimeFunc = time.Now

const maxEmbedFieldValue = 1024

// logCommand records an executed slash command and, when enabled, posts an
// embed to the command logging channel.
func (b *Bot) logCommand(i *discordgo.InteractionCreate) {
	executed := commandString(i.ApplicationCommandData())
	user := interactionUser(i)
	userID := ""
	if user != nil {
		userID = user.ID
	}

	log.Info().
		Str("command", executed).
		Str("user", displayName(user)).
		Str("guild_id", i.GuildID).
		Msg("Command executed")

	if !b.cfg.IsCommandLoggingEnabled() {
		return
	}

	link := fmt.Sprintf("<#%s>", i.ChannelID)
	if reply, err := b.session.InteractionResponse(i.Interaction); err == nil && reply != nil && reply.ID != "" {
		link = fmt.Sprintf("https://discord.com/channels/%s/%s/%s", i.GuildID, reply.ChannelID, reply.ID)
	}

	embed := &discordgo.MessageEmbed{
		Title: "Command Executed",
		Color: colourLog,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 User", Value: fmt.Sprintf("<@%s>", userID), Inline: true},
			{Name: "📅 Date", Value: fmt.Sprintf("<t:%d:F>", NowTimeFunc().Unix()), Inline: true},
			{Name: "📰 Interaction", Value: link, Inline: true},
			{Name: "🖥️ Command", Value: "```kotlin\n" + utils.Truncate(executed, maxEmbedFieldValue-32) + "\n```"},
		},
	}

	_, err := b.session.ChannelMessageSendComplex(b.cfg.GetCommandLoggingChannel(), &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		log.Err(err).Msg("Failed to send command log")
	}
}
