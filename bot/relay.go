package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/jrsteele09/wilbur/reddit"
	"github.com/rs/zerolog/log"
)

// onMessage relays messages from the configured channel to the subreddit.
func (b *Bot) onMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !b.cfg.IsRedditPostEnabled() || b.reddit == nil {
		return
	}
	if b.cfg.GetRelayChannelID() == "" || m.ChannelID != b.cfg.GetRelayChannelID() {
		return
	}
	if m.Content == "" {
		return
	}

	ctx, cancel := b.handlerContext()
	defer cancel()

	post := reddit.SelfPost{
		Subreddit: b.cfg.GetRedditSubreddit(),
		Title:     displayName(m.Author),
		Text:      m.Content,
		Flair:     b.cfg.GetRedditFlair(),
	}
	result, err := b.reddit.Submit(ctx, post)
	if err != nil {
		log.Err(err).Str("message_id", m.ID).Msg("Failed to relay message to Reddit")
		return
	}
	log.Info().Str("message_id", m.ID).Str("post", result.Name).Msg("Message relayed to Reddit")
}
