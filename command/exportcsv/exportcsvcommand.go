package exportcsv

import (
	"bytes"
	"fmt"
	"time"

	"HibernateBot/logger"
	"HibernateBot/services"
	"HibernateBot/utils"

	"github.com/bwmarrin/discordgo"
)

func Command(s *discordgo.Session, i *discordgo.InteractionCreate, reporter *services.Reporter, cleanup *services.CleanupScheduler) {
	if err := utils.DeferResponse(s, i); err != nil {
		logger.Log.WithError(err).Error("Error deferring exportcsv response")
		return
	}

	var buf bytes.Buffer
	rows, err := reporter.WriteCSV(&buf)
	if err != nil {
		logger.Log.WithError(err).Error("Error exporting ledger to CSV")
		sendReport(s, i, cleanup, utils.NewEmbed("Export Failed",
			"Failed to read the ledger. Please try again later."))
		return
	}

	if rows == 0 {
		sendReport(s, i, cleanup, utils.NewEmbed("Export", "The ledger is empty, nothing to export."))
		return
	}

	filename := fmt.Sprintf("inactivity_export_%s.csv", time.Now().UTC().Format("20060102_150405"))
	msg, err := utils.FollowupFile(s, i, &discordgo.File{
		Name:        filename,
		ContentType: "text/csv",
		Reader:      &buf,
	})
	if err != nil {
		return
	}
	cleanup.ReportPosted(i.ChannelID, msg.ID)
}

func sendReport(s *discordgo.Session, i *discordgo.InteractionCreate, cleanup *services.CleanupScheduler, embed *discordgo.MessageEmbed) {
	msg, err := utils.FollowupEmbed(s, i, embed)
	if err != nil {
		return
	}
	cleanup.ReportPosted(i.ChannelID, msg.ID)
}
