package bot

import "github.com/bwmarrin/discordgo"

const (
	colourRedditOrange = 0xFF4500
	colourError        = 0xDC3545
	colourLog          = 0xE91E63
)

const msgUnknownError = "Blimey! An unknown error occurred mate! I've reported the issue with my creators."

func errorEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ " + title,
		Description: description,
		Color:       colourError,
	}
}
