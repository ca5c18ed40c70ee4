package services

import (
	"context"
	"fmt"
	"sync"

	"HibernateBot/errorhandler"
	"HibernateBot/logger"
	"HibernateBot/models"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// RosterMember is one guild member as observed by the platform, with the
// presence state the reconciler bases its decisions on.
type RosterMember struct {
	MemberID string
	Bot      bool
	Presence models.Presence
}

// RosterProvider enumerates guilds and their members. Roster may fail with
// a transient connectivity error; the reconciler skips that guild for the
// pass.
type RosterProvider interface {
	GuildIDs() []string
	Roster(ctx context.Context, guildID string) ([]RosterMember, error)
}

// LabelManager grants and revokes the dormant label on the platform.
type LabelManager interface {
	GrantLabel(ctx context.Context, guildID, memberID string) error
	RevokeLabel(ctx context.Context, guildID, memberID string) error
}

// MessageDeleter removes an ephemeral report message. Deleting a message
// that is already gone must not be surfaced as an error by callers.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// DiscordPlatform adapts a discordgo session to the collaborator
// interfaces. Role mutations and message deletes go through a shared rate
// limiter so a large pass cannot trip Discord's rate limits.
type DiscordPlatform struct {
	session  *discordgo.Session
	roleName string
	limiter  *rate.Limiter

	mu      sync.Mutex
	roleIDs map[string]string // guild ID -> resolved dormant role ID
}

func NewDiscordPlatform(session *discordgo.Session, roleName string, mutationsPerSecond float64) *DiscordPlatform {
	return &DiscordPlatform{
		session:  session,
		roleName: roleName,
		limiter:  rate.NewLimiter(rate.Limit(mutationsPerSecond), 1),
		roleIDs:  make(map[string]string),
	}
}

func (p *DiscordPlatform) GuildIDs() []string {
	guilds := p.session.State.Guilds
	ids := make([]string, 0, len(guilds))
	for _, g := range guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

// Roster reads members and presences from the gateway state cache, which
// the members and presences intents keep populated. Discord omits offline
// members from the presence list, so a member without a presence entry is
// reported inactive, not unknown.
func (p *DiscordPlatform) Roster(ctx context.Context, guildID string) ([]RosterMember, error) {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return nil, errorhandler.NewTransientError(err, fmt.Sprintf("guild %s not in state cache", guildID))
	}

	members := make([]RosterMember, 0, len(guild.Members))
	for _, m := range guild.Members {
		if m.User == nil {
			continue
		}
		members = append(members, RosterMember{
			MemberID: m.User.ID,
			Bot:      m.User.Bot,
			Presence: p.presenceOf(guildID, m.User.ID),
		})
	}
	return members, nil
}

func (p *DiscordPlatform) presenceOf(guildID, userID string) models.Presence {
	presence, err := p.session.State.Presence(guildID, userID)
	if err != nil {
		return models.PresenceInactive
	}
	switch presence.Status {
	case discordgo.StatusOnline, discordgo.StatusIdle, discordgo.StatusDoNotDisturb:
		return models.PresenceActive
	case discordgo.StatusOffline, discordgo.StatusInvisible:
		return models.PresenceInactive
	default:
		return models.PresenceUnknown
	}
}

func (p *DiscordPlatform) GrantLabel(ctx context.Context, guildID, memberID string) error {
	roleID, err := p.resolveRole(guildID)
	if err != nil {
		return err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return p.session.GuildMemberRoleAdd(guildID, memberID, roleID)
}

func (p *DiscordPlatform) RevokeLabel(ctx context.Context, guildID, memberID string) error {
	roleID, err := p.resolveRole(guildID)
	if err != nil {
		return err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return p.session.GuildMemberRoleRemove(guildID, memberID, roleID)
}

func (p *DiscordPlatform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return p.session.ChannelMessageDelete(channelID, messageID)
}

// resolveRole finds the dormant role by name in the guild, caching the ID.
// The cache is never invalidated; recreating the role under the same name
// requires a restart, which operators accepted over re-scanning roles on
// every grant.
func (p *DiscordPlatform) resolveRole(guildID string) (string, error) {
	p.mu.Lock()
	if id, ok := p.roleIDs[guildID]; ok {
		p.mu.Unlock()
		return id, nil
	}
	p.mu.Unlock()

	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return "", errorhandler.NewTransientError(err, fmt.Sprintf("guild %s not in state cache", guildID))
	}
	for _, role := range guild.Roles {
		if role.Name == p.roleName {
			p.mu.Lock()
			p.roleIDs[guildID] = role.ID
			p.mu.Unlock()
			return role.ID, nil
		}
	}

	logger.Log.Warnf("Dormant role %q not found in guild %s", p.roleName, guildID)
	return "", errorhandler.NewError(errorhandler.NotFoundError,
		fmt.Errorf("role %q not found", p.roleName),
		fmt.Sprintf("resolving dormant role in guild %s", guildID),
		fmt.Sprintf("The %q role does not exist in this server.", p.roleName))
}
