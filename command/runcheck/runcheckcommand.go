package runcheck

import (
	"context"
	"errors"
	"fmt"

	"HibernateBot/errorhandler"
	"HibernateBot/logger"
	"HibernateBot/models"
	"HibernateBot/services"
	"HibernateBot/utils"

	"github.com/bwmarrin/discordgo"
)

func Command(s *discordgo.Session, i *discordgo.InteractionCreate, reconciler *services.Reconciler, cleanup *services.CleanupScheduler) {
	if err := utils.DeferResponse(s, i); err != nil {
		logger.Log.WithError(err).Error("Error deferring runcheck response")
		return
	}

	result, err := reconciler.RunPass(context.Background(), false)
	if err != nil {
		if errors.Is(err, services.ErrPassInProgress) {
			sendReport(s, i, cleanup, utils.NewEmbed("Check Already Running",
				"Another reconciliation pass is in progress. Try again once it finishes."))
			return
		}
		sendReport(s, i, cleanup, utils.NewEmbed("Check Failed", errorhandler.HandleError(err)))
		return
	}

	sendReport(s, i, cleanup, ResultEmbed("Inactivity Check Complete", result))
}

// ResultEmbed renders a pass result for a command reply.
func ResultEmbed(title string, result models.PassResult) *discordgo.MessageEmbed {
	embed := utils.NewEmbed(title, "")
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Examined", Value: fmt.Sprintf("%d", result.Examined), Inline: true},
		{Name: "Updated", Value: fmt.Sprintf("%d", result.Updated), Inline: true},
		{Name: "Roles Granted", Value: fmt.Sprintf("%d", result.Granted), Inline: true},
	}
	if result.Errors > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Skipped (errors)", Value: fmt.Sprintf("%d", result.Errors), Inline: true,
		})
	}
	return embed
}

func sendReport(s *discordgo.Session, i *discordgo.InteractionCreate, cleanup *services.CleanupScheduler, embed *discordgo.MessageEmbed) {
	msg, err := utils.FollowupEmbed(s, i, embed)
	if err != nil {
		return
	}
	cleanup.ReportPosted(i.ChannelID, msg.ID)
}
