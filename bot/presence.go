package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const statusInterval = 30 * time.Second

var numberPrinter = message.NewPrinter(language.English)

// activities is the presence rotation. The first two read the live guild
// counts so they are rebuilt on every tick.
func (b *Bot) activities() []*discordgo.Activity {
	guilds, members := b.guildStats()
	return []*discordgo.Activity{
		{Type: discordgo.ActivityTypeGame, Name: numberPrinter.Sprintf("with %d sharks", members)},
		{Type: discordgo.ActivityTypeWatching, Name: numberPrinter.Sprintf("%d swarms of sharks", guilds)},
		{Type: discordgo.ActivityTypeGame, Name: "shark tag 🏊"},
		{Type: discordgo.ActivityTypeCompeting, Name: "a shark race"},
		{Type: discordgo.ActivityTypeListening, Name: "shark music"},
	}
}

// nextStatus sets the next activity in the rotation.
func (b *Bot) nextStatus() {
	activities := b.activities()

	b.mu.Lock()
	activity := activities[b.statusIndex%len(activities)]
	b.statusIndex++
	b.mu.Unlock()

	err := b.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{activity},
		Status:     string(discordgo.StatusOnline),
	})
	if err != nil {
		log.Warn().Err(err).Str("activity", activity.Name).Msg("Failed to set activity")
	}
}

// rotateStatus advances the presence every interval until ctx is cancelled.
func (b *Bot) rotateStatus(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.nextStatus()
		}
	}
}

func (b *Bot) onGuildCreate(g *discordgo.GuildCreate) {
	if g.Guild == nil {
		return
	}
	b.mu.Lock()
	b.guilds[g.ID] = g.MemberCount
	b.mu.Unlock()
}

func (b *Bot) onGuildDelete(g *discordgo.GuildDelete) {
	// An outage marks the guild unavailable. It comes back with a GuildCreate.
	if g.Guild == nil || g.Unavailable {
		return
	}
	b.mu.Lock()
	delete(b.guilds, g.ID)
	b.mu.Unlock()
}

func (b *Bot) guildStats() (guilds, members int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, count := range b.guilds {
		members += count
	}
	return len(b.guilds), members
}
