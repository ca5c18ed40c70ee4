package utils

import (
	"time"

	"HibernateBot/logger"

	"github.com/bwmarrin/discordgo"
)

const embedColor = 0x9B59B6

func RespondToInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, message string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   flags,
		},
	})
	if err != nil {
		logger.Log.WithError(err).Error("Error responding to interaction")
	}
}

func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// NewEmbed builds a report embed in the bot's house style.
func NewEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       embedColor,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// FollowupEmbed sends an embed followup and returns the created message so
// callers can register it with the cleanup scheduler.
func FollowupEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	msg, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		logger.Log.WithError(err).Error("Error sending followup embed")
		return nil, err
	}
	return msg, nil
}

// FollowupFile sends a file attachment followup.
func FollowupFile(s *discordgo.Session, i *discordgo.InteractionCreate, file *discordgo.File) (*discordgo.Message, error) {
	msg, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Files: []*discordgo.File{file},
	})
	if err != nil {
		logger.Log.WithError(err).Error("Error sending followup file")
		return nil, err
	}
	return msg, nil
}
