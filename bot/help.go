package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/jrsteele09/wilbur/trello"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Custom IDs of the help buttons and the modals they open. A modal's ID is
// the prefix followed by the button that opened it.
const (
	buttonSuggest     = "trello_suggest"
	buttonIssue       = "trello_issue"
	trelloModalPrefix = "trello_modal-"

	inputTitle       = "modalTitle"
	inputDescription = "modalDescription"
	inputImage       = "modalImage"
)

const helpGreeting = "> G'day, mateys! I'm %s and I'm a shark! Don't worry, though, I'm not here to bite - I'm just a friendly Discord bot ready for fun!"

func (b *Bot) handleHelp(i *discordgo.InteractionCreate) {
	buttons := []discordgo.MessageComponent{}
	if appID := b.applicationID(); appID != "" {
		buttons = append(buttons, discordgo.Button{
			Label: "Invite Me",
			Emoji: &discordgo.ComponentEmoji{Name: "🤝"},
			Style: discordgo.LinkButton,
			URL:   inviteURL(appID),
		})
	}
	buttons = append(buttons,
		discordgo.Button{
			Label:    "Suggest a Feature",
			Emoji:    &discordgo.ComponentEmoji{Name: "💡"},
			Style:    discordgo.SecondaryButton,
			CustomID: buttonSuggest,
		},
		discordgo.Button{
			Label:    "Report an Issue",
			Emoji:    &discordgo.ComponentEmoji{Name: "🐛"},
			Style:    discordgo.SecondaryButton,
			CustomID: buttonIssue,
		},
	)

	b.respond(i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{b.commandListEmbed(i.GuildID, CommandHelp)},
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	})
}

func (b *Bot) handleCommands(i *discordgo.InteractionCreate) {
	b.respond(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{b.commandListEmbed(i.GuildID, CommandCommands)},
	})
}

// commandListEmbed lists every command except the one that was invoked.
// Registered commands are rendered as clickable mentions.
func (b *Bot) commandListEmbed(guildID, invoked string) *discordgo.MessageEmbed {
	b.mu.Lock()
	name, avatar := b.botName, b.botAvatar
	b.mu.Unlock()
	if name == "" {
		name = b.cfg.GetAppName()
	}

	embed := &discordgo.MessageEmbed{
		Color:       colourLog,
		Description: fmt.Sprintf(helpGreeting, name),
		Author:      &discordgo.MessageEmbedAuthor{Name: name + " Help"},
		Footer:      &discordgo.MessageEmbedFooter{Text: "Bot Version " + b.cfg.GetVersion(), IconURL: avatar},
	}
	if avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: avatar}
	}

	caser := cases.Title(language.English)
	for _, cmd := range applicationCommands() {
		if cmd.Name == invoked {
			continue
		}
		mention := caser.String(cmd.Name)
		if id := b.commandID(guildID, cmd.Name); id != "" {
			mention = fmt.Sprintf("</%s:%s>", cmd.Name, id)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🔹 " + mention,
			Value: "\u200b \u200b " + cmd.Description,
		})
	}
	return embed
}

// onComponent opens the feedback modal for a help button.
func (b *Bot) onComponent(i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	if customID != buttonSuggest && customID != buttonIssue {
		log.Debug().Str("custom_id", customID).Msg("Unhandled component")
		return
	}

	b.respondWith(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: reportModal(customID),
	})
}

func reportModal(buttonID string) *discordgo.InteractionResponseData {
	title, noun := "🐛 Report an Issue", "issue"
	if buttonID == buttonSuggest {
		title, noun = "💡 Suggest a Feature", "suggestion"
	}

	row := func(input discordgo.TextInput) discordgo.MessageComponent {
		return discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}}
	}
	return &discordgo.InteractionResponseData{
		CustomID: trelloModalPrefix + buttonID,
		Title:    title,
		Components: []discordgo.MessageComponent{
			row(discordgo.TextInput{
				CustomID:    inputTitle,
				Label:       "Title",
				Placeholder: "Short description of your " + noun,
				Style:       discordgo.TextInputShort,
				Required:    true,
				MinLength:   trello.MinTitleLength,
				MaxLength:   trello.MaxTitleLength,
			}),
			row(discordgo.TextInput{
				CustomID:    inputDescription,
				Label:       "Description",
				Placeholder: "Description of your " + noun,
				Style:       discordgo.TextInputParagraph,
				Required:    true,
				MinLength:   trello.MinDescriptionLength,
				MaxLength:   trello.MaxDescriptionLength,
			}),
			row(discordgo.TextInput{
				CustomID:    inputImage,
				Label:       "Image",
				Placeholder: "Links to images, showcasing your " + noun,
				Style:       discordgo.TextInputParagraph,
				MaxLength:   200,
			}),
		},
	}
}

// onModalSubmit files the report typed into a feedback modal.
func (b *Bot) onModalSubmit(i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	buttonID, ok := strings.CutPrefix(data.CustomID, trelloModalPrefix)
	if !ok {
		log.Debug().Str("custom_id", data.CustomID).Msg("Unhandled modal")
		return
	}

	reportType := trello.TypeIssue
	if buttonID == buttonSuggest {
		reportType = trello.TypeSuggestion
	}

	values := modalValues(data.Components)
	b.fileReport(i, reportType, values[inputTitle], values[inputDescription], values[inputImage])
}

// modalValues maps text input IDs to their submitted values. Components
// decoded from the gateway are pointers, those built in code are values.
func modalValues(components []discordgo.MessageComponent) map[string]string {
	values := make(map[string]string)
	for _, c := range components {
		var row []discordgo.MessageComponent
		switch r := c.(type) {
		case *discordgo.ActionsRow:
			row = r.Components
		case discordgo.ActionsRow:
			row = r.Components
		}
		for _, input := range row {
			switch t := input.(type) {
			case *discordgo.TextInput:
				values[t.CustomID] = strings.TrimSpace(t.Value)
			case discordgo.TextInput:
				values[t.CustomID] = strings.TrimSpace(t.Value)
			}
		}
	}
	return values
}

func (b *Bot) applicationID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appID
}

// inviteURL is the OAuth2 link that adds the bot to a server with the
// permissions its commands need.
func inviteURL(appID string) string {
	return fmt.Sprintf("https://discordapp.com/oauth2/authorize?client_id=%s&scope=bot%%20applications.commands&permissions=535327927376", appID)
}
