package recheck

import (
	"context"
	"errors"

	"HibernateBot/command/runcheck"
	"HibernateBot/errorhandler"
	"HibernateBot/logger"
	"HibernateBot/services"
	"HibernateBot/utils"

	"github.com/bwmarrin/discordgo"
)

// Command re-runs the reconciliation restricted to members already at or
// past the full dormancy threshold.
func Command(s *discordgo.Session, i *discordgo.InteractionCreate, reconciler *services.Reconciler, cleanup *services.CleanupScheduler) {
	if err := utils.DeferResponse(s, i); err != nil {
		logger.Log.WithError(err).Error("Error deferring recheck response")
		return
	}

	result, err := reconciler.RunPass(context.Background(), true)
	if err != nil {
		if errors.Is(err, services.ErrPassInProgress) {
			sendReport(s, i, cleanup, utils.NewEmbed("Check Already Running",
				"Another reconciliation pass is in progress. Try again once it finishes."))
			return
		}
		sendReport(s, i, cleanup, utils.NewEmbed("Re-check Failed", errorhandler.HandleError(err)))
		return
	}

	sendReport(s, i, cleanup, runcheck.ResultEmbed("Long-dormant Re-check Complete", result))
}

func sendReport(s *discordgo.Session, i *discordgo.InteractionCreate, cleanup *services.CleanupScheduler, embed *discordgo.MessageEmbed) {
	msg, err := utils.FollowupEmbed(s, i, embed)
	if err != nil {
		return
	}
	cleanup.ReportPosted(i.ChannelID, msg.ID)
}
