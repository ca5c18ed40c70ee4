package command

import (
	"HibernateBot/command/exportcsv"
	"HibernateBot/command/listdormant"
	"HibernateBot/command/recheck"
	"HibernateBot/command/runcheck"
	"HibernateBot/command/setinactive"
	"HibernateBot/command/status"
	"HibernateBot/command/toggleautodelete"
	"HibernateBot/command/wake"
	"HibernateBot/config"
	"HibernateBot/logger"
	"HibernateBot/services"
	"HibernateBot/utils"

	"github.com/bwmarrin/discordgo"
)

// Deps carries the handles command handlers operate on. Handlers never
// reach for package-level state.
type Deps struct {
	Reconciler *services.Reconciler
	Reporter   *services.Reporter
	Cleanup    *services.CleanupScheduler
	Runtime    *config.Runtime
}

var adminPermission = int64(discordgo.PermissionAdministrator)

func Definitions() []*discordgo.ApplicationCommand {
	minDaysMin := float64(1)
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "runcheck",
			Description:              "Run an inactivity reconciliation pass now.",
			DefaultMemberPermissions: &adminPermission,
		},
		{
			Name:                     "recheck",
			Description:              "Re-check members already past the full dormancy threshold.",
			DefaultMemberPermissions: &adminPermission,
		},
		{
			Name:                     "setinactive",
			Description:              "Set the number of inactive days before the dormant role is granted.",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "days",
					Description: "Threshold in days (at least 1).",
					Required:    true,
					MinValue:    &minDaysMin,
				},
			},
		},
		{
			Name:                     "toggle_autodelete",
			Description:              "Toggle automatic deletion of old report messages.",
			DefaultMemberPermissions: &adminPermission,
		},
		{
			Name:        "status",
			Description: "Show how many members currently hold the dormant role.",
		},
		{
			Name:                     "listdormant",
			Description:              "List members last seen offline at least the given number of days ago.",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "min_days",
					Description: "Minimum days offline (default 1).",
					MinValue:    &minDaysMin,
				},
			},
		},
		{
			Name:                     "wake",
			Description:              "Remove the dormant role from a member.",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "The member to wake.",
					Required:    true,
				},
			},
		},
		{
			Name:                     "exportcsv",
			Description:              "Export the inactivity ledger as a CSV file.",
			DefaultMemberPermissions: &adminPermission,
		},
	}
}

// Register overwrites the bot's global command set with Definitions.
func Register(s *discordgo.Session) error {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, "", Definitions())
	return err
}

// Handle routes an interaction to its command handler.
func Handle(s *discordgo.Session, i *discordgo.InteractionCreate, deps *Deps) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	logger.Log.Debugf("Handling command /%s", name)

	switch name {
	case "runcheck":
		runcheck.Command(s, i, deps.Reconciler, deps.Cleanup)
	case "recheck":
		recheck.Command(s, i, deps.Reconciler, deps.Cleanup)
	case "setinactive":
		setinactive.Command(s, i, deps.Runtime)
	case "toggle_autodelete":
		toggleautodelete.Command(s, i, deps.Runtime)
	case "status":
		status.Command(s, i, deps.Reporter)
	case "listdormant":
		listdormant.Command(s, i, deps.Reporter, deps.Cleanup)
	case "wake":
		wake.Command(s, i, deps.Reconciler)
	case "exportcsv":
		exportcsv.Command(s, i, deps.Reporter, deps.Cleanup)
	default:
		logger.Log.Warnf("Unknown command: %s", name)
		utils.RespondToInteraction(s, i, "Unknown command.", true)
	}
}
