package wake

import (
	"context"
	"fmt"

	"HibernateBot/errorhandler"
	"HibernateBot/services"
	"HibernateBot/utils"

	"github.com/bwmarrin/discordgo"
)

func Command(s *discordgo.Session, i *discordgo.InteractionCreate, reconciler *services.Reconciler) {
	if i.GuildID == "" {
		utils.RespondToInteraction(s, i, "This command only works inside a server.", true)
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		utils.RespondToInteraction(s, i, "Please select a member to wake.", true)
		return
	}
	user := options[0].UserValue(s)
	if user == nil {
		utils.RespondToInteraction(s, i, "Could not resolve that member.", true)
		return
	}

	if err := reconciler.Revoke(context.Background(), i.GuildID, user.ID); err != nil {
		utils.RespondToInteraction(s, i, errorhandler.HandleError(err), true)
		return
	}

	utils.RespondToInteraction(s, i,
		fmt.Sprintf("Removed the dormant role from <@%s>.", user.ID), true)
}
