package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	apperrors "github.com/jrsteele09/wilbur/internal/errors"
	"github.com/rs/zerolog/log"
)

const msgLinkingNotConfigured = "Reddit linking is not configured for this bot. Ask an administrator to set it up."

const redditAuthDescription = "Click the button below to authenticate with Reddit through Discord OAuth.\n\n" +
	"**This will allow the bot to:**\n" +
	"• Post messages to Reddit on your behalf\n" +
	"• Access your Reddit identity\n" +
	"• Submit posts to configured subreddits\n\n" +
	"**Authentication Flow:**\n" +
	"1. Authenticate with Discord\n" +
	"2. Authenticate with Reddit\n" +
	"3. Tokens will be stored for automated posting"

// handleRedditAuth starts the callback server if needed and hands the invoker
// a private link to begin the linking flow.
func (b *Bot) handleRedditAuth(i *discordgo.InteractionCreate) {
	user := interactionUser(i)

	authURL, err := b.startLinking(user)
	if err != nil {
		description := "Failed to start the authentication process. Please try again later."
		if apperrors.Is(err, apperrors.ErrNotConfigured) {
			log.Warn().Err(err).Msg("Reddit linking requested but not configured")
			description = msgLinkingNotConfigured
		} else {
			log.Err(err).Msg("Failed to start Reddit linking")
		}
		b.respond(i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{errorEmbed("Authentication Error", description)},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
		return
	}

	b.respond(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "🔗 Reddit Authentication",
			Description: redditAuthDescription,
			Color:       colourRedditOrange,
			Footer:      &discordgo.MessageEmbedFooter{Text: "This authentication is required for Reddit integration"},
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "🔐 Start Authentication", Style: discordgo.LinkButton, URL: authURL},
			}},
		},
		Flags: discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) startLinking(user *discordgo.User) (string, error) {
	if b.link == nil || !b.cfg.IsRedditLinkingConfigured() {
		return "", fmt.Errorf("reddit linking: %w", apperrors.ErrNotConfigured)
	}
	if user == nil {
		return "", fmt.Errorf("reddit linking: %w: interaction has no user", apperrors.ErrInvalidRequest)
	}
	if err := b.link.Start(); err != nil {
		return "", err
	}
	return b.link.GenerateAuthURL(user.ID)
}
