package toggleautodelete

import (
	"HibernateBot/config"
	"HibernateBot/logger"
	"HibernateBot/utils"

	"github.com/bwmarrin/discordgo"
)

func Command(s *discordgo.Session, i *discordgo.InteractionCreate, runtime *config.Runtime) {
	enabled, err := runtime.ToggleAutoDelete()
	if err != nil {
		logger.Log.WithError(err).Error("Error toggling auto-delete")
		utils.RespondToInteraction(s, i, "Failed to update the auto-delete setting. Please try again.", true)
		return
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	utils.RespondToInteraction(s, i, "Automatic report deletion is now **"+state+"**.", true)
}
