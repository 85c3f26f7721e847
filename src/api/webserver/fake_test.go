package webserver

import (
	"context"
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/guildpanel/src/api/auth"
	"github.com/stake-plus/guildpanel/src/guilds"
	"github.com/stake-plus/guildpanel/src/types"
)

type fakeGuild struct {
	id    string
	roles map[string]*discordgo.Role
}

func newFakeGuild(id string, roleIDs ...string) *fakeGuild {
	g := &fakeGuild{id: id, roles: map[string]*discordgo.Role{}}
	for _, rid := range roleIDs {
		g.roles[rid] = &discordgo.Role{ID: rid, Name: "role-" + rid}
	}
	return g
}

func (g *fakeGuild) ID() string   { return g.id }
func (g *fakeGuild) Name() string { return "Guild " + g.id }
func (g *fakeGuild) Icon() string { return "" }

func (g *fakeGuild) Role(roleID string) (*discordgo.Role, error) {
	return g.roles[roleID], nil
}

func (g *fakeGuild) Roles() []*discordgo.Role {
	out := make([]*discordgo.Role, 0, len(g.roles))
	for _, r := range g.roles {
		out = append(out, r)
	}
	return out
}

type fakeResolver struct {
	guilds map[string]guilds.Guild
	err    error
}

func (r *fakeResolver) Guild(guildID string) (guilds.Guild, error) {
	if r.err != nil {
		return nil, r.err
	}
	g, ok := r.guilds[guildID]
	if !ok {
		return nil, guilds.ErrGuildUnavailable
	}
	return g, nil
}

type fakeConfigs struct {
	mu     sync.Mutex
	rows   map[string]types.ServerConfig
	SaveFn func(sc *types.ServerConfig) error
	saves  int
}

func newFakeConfigs() *fakeConfigs {
	return &fakeConfigs{rows: map[string]types.ServerConfig{}}
}

func (f *fakeConfigs) put(guildID string, ac types.AutoroleConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[guildID] = types.ServerConfig{GuildID: guildID, Autorole: ac}
}

func (f *fakeConfigs) get(guildID string) types.AutoroleConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rows[guildID]
	return row.AutoroleConfig()
}

func (f *fakeConfigs) Load(_ context.Context, guildID string) (*types.ServerConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[guildID]
	if !ok {
		row = types.ServerConfig{GuildID: guildID, Autorole: types.AutoroleConfig{Roles: []string{}}}
	}
	row.Autorole = row.AutoroleConfig()
	return &row, nil
}

func (f *fakeConfigs) Save(_ context.Context, sc *types.ServerConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.SaveFn != nil {
		if err := f.SaveFn(sc); err != nil {
			return err
		}
	}
	row := *sc
	row.Autorole = sc.AutoroleConfig()
	f.rows[sc.GuildID] = row
	return nil
}

type fakeOAuth struct {
	identity *auth.Identity
}

func (f *fakeOAuth) AuthCodeURL(context.Context) (string, error) {
	return "https://discord.test/authorize?state=s1", nil
}

func (f *fakeOAuth) Complete(_ context.Context, state, code string) (*auth.Identity, error) {
	if state != "s1" {
		return nil, auth.ErrInvalidState
	}
	if code != "good" {
		return nil, errors.New("exchange failed")
	}
	return f.identity, nil
}
