package views

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/microcosm-cc/bluemonday"

	"github.com/stake-plus/guildpanel/src/api/auth"
	"github.com/stake-plus/guildpanel/src/guilds"
	"github.com/stake-plus/guildpanel/src/types"
)

const (
	AutoroleTemplate = "autorole_config.html"
	AutorolePage     = "autoroleConfig"

	fieldAutoroles = "autoroles"
	fieldEnable    = "enableModule"
	roleSeparator  = ";"
)

// roleNamePolicy strips markup from role names. The result is unescaped back to
// plain text since html/template escapes it on render.
var roleNamePolicy = bluemonday.StrictPolicy()

// RoleOption is a guild role offered by the role picker.
type RoleOption struct {
	ID       string
	Name     string
	Color    string
	Selected bool
}

// Autorole renders the auto-role settings page. Stale role IDs are pruned and
// saved on every load; a form carrying "autoroles" replaces the settings.
func Autorole(ctx context.Context, rc *RenderContext, sess *auth.Session, sc *types.ServerConfig, saver ConfigSaver) (string, error) {
	guild := rc.Guild
	if guild == nil {
		return "", guilds.ErrGuildUnavailable
	}

	ac := sc.AutoroleConfig()

	if kept, removed := PruneRoles(guild, ac.Roles); len(removed) > 0 {
		ac.Roles = kept
		sc.SetAutoroleConfig(ac)
		if err := saver.Save(ctx, sc); err != nil {
			return "", fmt.Errorf("save pruned autoroles: %w", err)
		}
	}

	if rc.Has(fieldAutoroles) {
		ac.Enabled = rc.Has(fieldEnable)
		ac.Roles = SplitRoles(rc.Param(fieldAutoroles))
		sc.SetAutoroleConfig(ac)
		if err := saver.Save(ctx, sc); err != nil {
			return "", fmt.Errorf("save autoroles: %w", err)
		}
	}

	current := sc.AutoroleConfig()
	rc.Set("whereAmI", AutorolePage)
	rc.Set("currentAutoroles", JoinRoles(current.Roles))
	rc.Set("autoroleEnabled", current.Enabled)
	rc.Set("guildRoles", roleOptions(guild.Roles(), current.Roles))
	rc.Set("guildName", guild.Name())
	if sess != nil {
		rc.Set("csrfToken", sess.CSRF)
	}

	return AutoroleTemplate, nil
}

// PruneRoles splits roles into those the guild still has and those it does not.
// A failed lookup counts as a missing role.
func PruneRoles(guild guilds.Guild, roles []string) (kept, removed []string) {
	kept = make([]string, 0, len(roles))
	for _, id := range roles {
		role, err := guild.Role(id)
		if err != nil || role == nil {
			removed = append(removed, id)
			continue
		}
		kept = append(kept, id)
	}
	return kept, removed
}

// SplitRoles parses the submitted role list. Empty segments are dropped,
// everything else is kept as sent.
func SplitRoles(raw string) []string {
	out := []string{}
	for _, id := range strings.Split(raw, roleSeparator) {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func JoinRoles(roles []string) string {
	return strings.Join(roles, roleSeparator)
}

func roleOptions(roles []*discordgo.Role, selected []string) []RoleOption {
	chosen := make(map[string]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}

	out := make([]RoleOption, 0, len(roles))
	for _, r := range roles {
		if r.Managed {
			continue
		}
		out = append(out, RoleOption{
			ID:       r.ID,
			Name:     html.UnescapeString(roleNamePolicy.Sanitize(r.Name)),
			Color:    fmt.Sprintf("#%06x", r.Color),
			Selected: chosen[r.ID],
		})
	}
	return out
}
