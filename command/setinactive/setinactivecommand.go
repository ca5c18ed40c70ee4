package setinactive

import (
	"fmt"

	"HibernateBot/config"
	"HibernateBot/logger"
	"HibernateBot/utils"

	"github.com/bwmarrin/discordgo"
)

func Command(s *discordgo.Session, i *discordgo.InteractionCreate, runtime *config.Runtime) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		utils.RespondToInteraction(s, i, "Please provide the number of days.", true)
		return
	}

	days := int(options[0].IntValue())
	if err := runtime.SetInactiveDays(days); err != nil {
		logger.Log.WithError(err).Error("Error updating inactivity threshold")
		utils.RespondToInteraction(s, i, "The number of days must be at least 1.", true)
		return
	}

	utils.RespondToInteraction(s, i,
		fmt.Sprintf("Inactivity threshold set to **%d days**.", days), true)
}
