// Package views holds the dashboard page handlers. A view reads the live guild
// and the submitted form from a RenderContext, fills its template variables and
// returns the name of the template to render.
package views

import (
	"context"
	"net/url"

	"github.com/stake-plus/guildpanel/src/guilds"
	"github.com/stake-plus/guildpanel/src/types"
)

// RenderContext carries one request through a view.
type RenderContext struct {
	Guild guilds.Guild
	Form  url.Values
	Vars  map[string]any
}

func NewRenderContext(guild guilds.Guild, form url.Values) *RenderContext {
	if form == nil {
		form = url.Values{}
	}
	return &RenderContext{Guild: guild, Form: form, Vars: make(map[string]any)}
}

// Has reports whether the field was submitted at all, empty or not.
func (rc *RenderContext) Has(field string) bool {
	_, ok := rc.Form[field]
	return ok
}

func (rc *RenderContext) Param(field string) string {
	return rc.Form.Get(field)
}

func (rc *RenderContext) Set(key string, value any) {
	rc.Vars[key] = value
}

// ConfigSaver persists a whole server config record.
type ConfigSaver interface {
	Save(ctx context.Context, sc *types.ServerConfig) error
}
