// Package guilds resolves live Discord guilds for the dashboard.
package guilds

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// ErrGuildUnavailable means the bot cannot see the guild.
var ErrGuildUnavailable = errors.New("guilds: guild unavailable")

// Guild is the live view of a Discord guild.
type Guild interface {
	ID() string
	Name() string
	Icon() string
	// Role returns nil, nil when the guild has no such role.
	Role(roleID string) (*discordgo.Role, error)
	Roles() []*discordgo.Role
}

// Session is the part of *discordgo.Session used for REST fallbacks.
type Session interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
}

type Resolver struct {
	session Session
	state   *discordgo.State
}

// NewResolver uses the gateway state first and REST when the guild is not cached.
func NewResolver(s *discordgo.Session) *Resolver {
	return &Resolver{session: s, state: s.State}
}

func newResolver(session Session, state *discordgo.State) *Resolver {
	return &Resolver{session: session, state: state}
}

// Guild returns a snapshot of guildID.
func (r *Resolver) Guild(guildID string) (Guild, error) {
	if r.state != nil {
		if g, err := r.state.Guild(guildID); err == nil {
			return snapshot(g), nil
		}
	}

	g, err := r.session.Guild(guildID)
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil {
			switch restErr.Response.StatusCode {
			case http.StatusNotFound, http.StatusForbidden, http.StatusUnauthorized:
				return nil, ErrGuildUnavailable
			}
		}
		return nil, fmt.Errorf("fetch guild %s: %w", guildID, err)
	}
	return snapshot(g), nil
}

type liveGuild struct {
	id    string
	name  string
	icon  string
	roles map[string]*discordgo.Role
}

func snapshot(g *discordgo.Guild) *liveGuild {
	lg := &liveGuild{
		id:    g.ID,
		name:  g.Name,
		icon:  g.Icon,
		roles: make(map[string]*discordgo.Role, len(g.Roles)),
	}
	for _, role := range g.Roles {
		if role != nil {
			lg.roles[role.ID] = role
		}
	}
	return lg
}

func (g *liveGuild) ID() string   { return g.id }
func (g *liveGuild) Name() string { return g.name }
func (g *liveGuild) Icon() string { return g.icon }

func (g *liveGuild) Role(roleID string) (*discordgo.Role, error) {
	if _, err := strconv.ParseUint(roleID, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid role id %q: %w", roleID, err)
	}
	return g.roles[roleID], nil
}

// Roles returns the roles highest position first, without @everyone.
func (g *liveGuild) Roles() []*discordgo.Role {
	out := make([]*discordgo.Role, 0, len(g.roles))
	for id, role := range g.roles {
		if id == g.id {
			continue
		}
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position > out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}
