package listdormant

import (
	"fmt"
	"strings"
	"time"

	"HibernateBot/logger"
	"HibernateBot/services"
	"HibernateBot/utils"

	"github.com/bwmarrin/discordgo"
)

const maxListedMembers = 25

func Command(s *discordgo.Session, i *discordgo.InteractionCreate, reporter *services.Reporter, cleanup *services.CleanupScheduler) {
	if i.GuildID == "" {
		utils.RespondToInteraction(s, i, "This command only works inside a server.", true)
		return
	}

	minDays := 1
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "min_days" {
			minDays = int(opt.IntValue())
		}
	}

	if err := utils.DeferResponse(s, i); err != nil {
		logger.Log.WithError(err).Error("Error deferring listdormant response")
		return
	}

	records, err := reporter.ListMembers(i.GuildID, minDays)
	if err != nil {
		logger.Log.WithError(err).Error("Error listing members")
		sendReport(s, i, cleanup, utils.NewEmbed("Listing Failed",
			"Failed to read the ledger. Please try again later."))
		return
	}

	title := fmt.Sprintf("Members offline for %d+ days", minDays)
	if len(records) == 0 {
		sendReport(s, i, cleanup, utils.NewEmbed(title, "No tracked members match."))
		return
	}

	now := time.Now().UTC()
	var lines []string
	for idx, rec := range records {
		if idx == maxListedMembers {
			lines = append(lines, fmt.Sprintf("… and %d more", len(records)-maxListedMembers))
			break
		}
		name := memberName(s, rec.GuildID, rec.MemberID)
		lines = append(lines, fmt.Sprintf("%s (%s): %d days", name, rec.MemberID, rec.ElapsedDays(now)))
	}

	embed := utils.NewEmbed(title, strings.Join(lines, "\n"))
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("%d members total", len(records)),
	}
	sendReport(s, i, cleanup, embed)
}

// memberName resolves a display name from the state cache, tolerating
// members who left since the ledger row was written.
func memberName(s *discordgo.Session, guildID, memberID string) string {
	member, err := s.State.Member(guildID, memberID)
	if err != nil || member.User == nil {
		return "Unknown"
	}
	if member.Nick != "" {
		return member.Nick
	}
	return member.User.Username
}

func sendReport(s *discordgo.Session, i *discordgo.InteractionCreate, cleanup *services.CleanupScheduler, embed *discordgo.MessageEmbed) {
	msg, err := utils.FollowupEmbed(s, i, embed)
	if err != nil {
		return
	}
	cleanup.ReportPosted(i.ChannelID, msg.ID)
}
