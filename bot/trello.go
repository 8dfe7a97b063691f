package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	apperrors "github.com/jrsteele09/wilbur/internal/errors"
	"github.com/jrsteele09/wilbur/trello"
	"github.com/rs/zerolog/log"
)

func (b *Bot) handleTrello(i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	b.fileReport(i,
		optionString(data, "type"),
		optionString(data, "title"),
		optionString(data, "description"),
		optionString(data, "image"),
	)
}

// fileReport validates a report, files it on the board and tells the reporter
// where it landed. Both the /trello command and the help modals end here.
func (b *Bot) fileReport(i *discordgo.InteractionCreate, reportType, title, description, image string) {
	report, err := trello.NewReport(reportType, title, description, image)
	if err != nil {
		b.respond(i, &discordgo.InteractionResponseData{Content: err.Error(), Flags: discordgo.MessageFlagsEphemeral})
		return
	}

	if b.trello == nil {
		log.Err(apperrors.ErrNotConfigured).Msg("Trello report without a Trello client")
		b.respond(i, &discordgo.InteractionResponseData{Content: msgUnknownError})
		return
	}

	ctx, cancel := b.handlerContext()
	defer cancel()

	reporter := "unknown"
	if user := interactionUser(i); user != nil {
		reporter = user.Username
	}

	card, err := b.trello.CreateCard(ctx, reporter, report)
	if err != nil {
		log.Err(err).Str("type", reportType).Msg("Failed to create Trello card")
		b.respond(i, &discordgo.InteractionResponseData{Content: msgUnknownError})
		return
	}

	b.respond(i, &discordgo.InteractionResponseData{
		Content: fmt.Sprintf("Your `%s` has been logged successfully on the [Trello board!](%s), appreciate the feedback, mate! ",
			report.Type(), card.ShortURL),
		Flags: discordgo.MessageFlagsEphemeral,
	})
	b.announceCard(report, reporter, card)
}

func (b *Bot) announceCard(report trello.Report, reporter string, card *trello.Card) {
	channelID := b.cfg.GetTrelloChannel()
	if channelID == "" {
		return
	}

	_, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("New %s, from %s: %s", report.Type(), reporter, card.ShortURL),
	})
	if err != nil {
		log.Warn().Err(err).Str("card_id", card.ID).Msg("Failed to announce Trello card")
	}
}
