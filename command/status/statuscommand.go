package status

import (
	"fmt"

	"HibernateBot/logger"
	"HibernateBot/services"
	"HibernateBot/utils"

	"github.com/bwmarrin/discordgo"
)

func Command(s *discordgo.Session, i *discordgo.InteractionCreate, reporter *services.Reporter) {
	if i.GuildID == "" {
		utils.RespondToInteraction(s, i, "This command only works inside a server.", true)
		return
	}

	count, err := reporter.DormantCount(i.GuildID)
	if err != nil {
		logger.Log.WithError(err).Error("Error counting dormant members")
		utils.RespondToInteraction(s, i, "Failed to read the ledger. Please try again later.", true)
		return
	}

	utils.RespondToInteraction(s, i,
		fmt.Sprintf("There are currently **%d** members with the dormant role.", count), true)
}
