package bot

import (
	"errors"
	"fmt"

	"HibernateBot/command"
	"HibernateBot/config"
	"HibernateBot/logger"
	"HibernateBot/services"

	"github.com/bwmarrin/discordgo"
)

// Bot ties the Discord session to the reconciler, reporter, and cleanup
// scheduler.
type Bot struct {
	Session  *discordgo.Session
	Platform *services.DiscordPlatform
	deps     *command.Deps
}

// New creates the Discord session and the platform adapter. The session is
// not opened yet; call Start after the rest of the wiring exists.
func New(settings *config.Settings) (*Bot, error) {
	if settings.DiscordToken == "" {
		return nil, errors.New("DISCORD_TOKEN environment variable not set")
	}

	session, err := discordgo.New("Bot " + settings.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}

	// Presences drive the whole reconciliation; members and messages feed
	// the roster and the auto-delete trigger.
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences |
		discordgo.IntentsGuildMessages
	session.StateEnabled = true
	session.State.TrackPresences = true
	session.State.TrackMembers = true

	platform := services.NewDiscordPlatform(session, settings.DormantRoleName, settings.PlatformRate)

	return &Bot{Session: session, Platform: platform}, nil
}

// Start opens the gateway, registers the slash commands, and wires the
// event handlers to deps.
func (b *Bot) Start(deps *command.Deps) error {
	b.deps = deps

	b.Session.AddHandler(b.onReady)
	b.Session.AddHandler(b.onInteractionCreate)
	b.Session.AddHandler(b.onMessageCreate)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error connecting to gateway: %w", err)
	}

	if err := command.Register(b.Session); err != nil {
		return fmt.Errorf("error registering commands: %w", err)
	}
	logger.Log.Info("Registered global commands")

	return nil
}

func (b *Bot) Stop() error {
	return b.Session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Log.Infof("Logged in as %s#%s, watching %d guilds",
		r.User.Username, r.User.Discriminator, len(r.Guilds))

	if err := s.UpdateWatchStatus(0, "who's been sleeping"); err != nil {
		logger.Log.WithError(err).Error("Error setting presence")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("Panic recovered in command handler: %v", r)
		}
	}()

	command.Handle(s, i, b.deps)
}

// onMessageCreate schedules deletion of a channel's tracked report once a
// human posts something new there.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	b.deps.Cleanup.ChannelActive(m.ChannelID)
}
