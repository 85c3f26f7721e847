package views

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/guildpanel/src/types"
)

type fakeGuild struct {
	id     string
	roles  map[string]*discordgo.Role
	broken map[string]bool
	trace  []string
}

func newFakeGuild(id string, roleIDs ...string) *fakeGuild {
	g := &fakeGuild{id: id, roles: map[string]*discordgo.Role{}, broken: map[string]bool{}}
	for i, rid := range roleIDs {
		g.roles[rid] = &discordgo.Role{ID: rid, Name: "role-" + rid, Position: len(roleIDs) - i}
	}
	return g
}

func (g *fakeGuild) ID() string   { return g.id }
func (g *fakeGuild) Name() string { return "guild-" + g.id }
func (g *fakeGuild) Icon() string { return "" }

func (g *fakeGuild) Role(roleID string) (*discordgo.Role, error) {
	g.trace = append(g.trace, roleID)
	if g.broken[roleID] {
		return nil, errors.New("lookup failed")
	}
	return g.roles[roleID], nil
}

func (g *fakeGuild) Roles() []*discordgo.Role {
	out := make([]*discordgo.Role, 0, len(g.roles))
	for _, r := range g.roles {
		out = append(out, r)
	}
	return out
}

type fakeSaver struct {
	SaveFn func(ctx context.Context, sc *types.ServerConfig) error
	saved  []types.AutoroleConfig
}

func (s *fakeSaver) Save(ctx context.Context, sc *types.ServerConfig) error {
	s.saved = append(s.saved, sc.AutoroleConfig())
	if s.SaveFn != nil {
		return s.SaveFn(ctx, sc)
	}
	return nil
}
