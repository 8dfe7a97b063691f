package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/jrsteele09/wilbur/internal/utils"
	"github.com/jrsteele09/wilbur/trello"
	"github.com/rs/zerolog/log"
)

const (
	CommandRedditAuth = "redditauth"
	CommandTrello     = "trello"
	CommandHelp       = "help"
	CommandCommands   = "commands"
)

type commandHandler func(i *discordgo.InteractionCreate)

func (b *Bot) commandHandlers() map[string]commandHandler {
	return map[string]commandHandler{
		CommandRedditAuth: b.handleRedditAuth,
		CommandTrello:     b.handleTrello,
		CommandHelp:       b.handleHelp,
		CommandCommands:   b.handleCommands,
	}
}

func applicationCommands() []*discordgo.ApplicationCommand {
	manageChannels := int64(discordgo.PermissionManageChannels)

	return []*discordgo.ApplicationCommand{
		{
			Name:                     CommandRedditAuth,
			Description:              "Authenticate with Reddit for automated posting",
			DefaultMemberPermissions: &manageChannels,
		},
		{
			Name:        CommandTrello,
			Description: "Report bug / Make suggestion",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "Type of report",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: trello.TypeSuggestion, Value: trello.TypeSuggestion},
						{Name: trello.TypeIssue, Value: trello.TypeIssue},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "title",
					Description: "Title",
					Required:    true,
					MinLength:   utils.Ptr(trello.MinTitleLength),
					MaxLength:   trello.MaxTitleLength,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "description",
					Description: "Description",
					Required:    true,
					MinLength:   utils.Ptr(trello.MinDescriptionLength),
					MaxLength:   trello.MaxDescriptionLength,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "image",
					Description: "Image",
					MinLength:   utils.Ptr(4),
					MaxLength:   200,
				},
			},
		},
		{
			Name:        CommandHelp,
			Description: "Display list of commands.",
		},
		{
			Name:        CommandCommands,
			Description: "Display list of commands.",
		},
	}
}

// registerCommands overwrites the command set for each configured guild, or
// globally when no guild is configured.
func (b *Bot) registerCommands(appID string) error {
	guilds := b.cfg.GetGuildIDs()
	if len(guilds) == 0 {
		guilds = []string{""}
	}

	cmds := applicationCommands()
	for _, guildID := range guilds {
		registered, err := b.session.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
		if err != nil {
			return fmt.Errorf("register commands for guild %q: %w", guildID, err)
		}

		ids := make(map[string]string, len(registered))
		for _, c := range registered {
			if c.ID != "" {
				ids[c.Name] = c.ID
			}
		}
		b.mu.Lock()
		b.commandIDs[guildID] = ids
		b.mu.Unlock()

		log.Debug().Str("guild_id", guildID).Int("commands", len(cmds)).Msg("Slash commands registered")
	}
	return nil
}

// commandID returns the registered ID of a command for mentions, or "" when
// the command was never registered in guildID or globally.
func (b *Bot) commandID(guildID, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id := b.commandIDs[guildID][name]; id != "" {
		return id
	}
	return b.commandIDs[""][name]
}

func (b *Bot) onInteraction(i *discordgo.InteractionCreate) {
	// Only guild interactions are handled
	if i.GuildID == "" {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.onCommand(i)
	case discordgo.InteractionMessageComponent:
		b.onComponent(i)
	case discordgo.InteractionModalSubmit:
		b.onModalSubmit(i)
	}
}

func (b *Bot) onCommand(i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	handler, ok := b.commands[data.Name]
	if !ok {
		log.Warn().Str("command", data.Name).Msg("Unknown command")
		return
	}

	handler(i)
	b.logCommand(i)
}

func (b *Bot) respond(i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	b.respondWith(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func (b *Bot) respondWith(i *discordgo.InteractionCreate, resp *discordgo.InteractionResponse) {
	if err := b.session.InteractionRespond(i.Interaction, resp); err != nil {
		log.Err(err).Str("interaction", interactionName(i)).Msg("Failed to respond to interaction")
	}
}

// interactionName is the command name or component custom ID of i.
func interactionName(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		return i.ModalSubmitData().CustomID
	default:
		return i.Type.String()
	}
}

// interactionUser returns whoever invoked the interaction, in a guild or a DM.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func displayName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func optionString(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

// commandString renders a command the way Discord displays it.
// Example: "/trello type:Issue title:Crash description:It crashes"
func commandString(data discordgo.ApplicationCommandInteractionData) string {
	var b strings.Builder
	b.WriteString("/" + data.Name)
	for _, opt := range data.Options {
		fmt.Fprintf(&b, " %s:%v", opt.Name, opt.Value)
	}
	return b.String()
}
