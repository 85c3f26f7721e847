// Package webserver serves the dashboard HTML pages and the /v1 JSON API.
package webserver

import (
	"context"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stake-plus/guildpanel/src/api/auth"
	"github.com/stake-plus/guildpanel/src/config"
	"github.com/stake-plus/guildpanel/src/guilds"
	"github.com/stake-plus/guildpanel/src/types"
)

type ConfigStore interface {
	Load(ctx context.Context, guildID string) (*types.ServerConfig, error)
	Save(ctx context.Context, sc *types.ServerConfig) error
}

type GuildResolver interface {
	Guild(guildID string) (guilds.Guild, error)
}

type SessionStore interface {
	Create(ctx context.Context, id *auth.Identity) (*auth.Session, error)
	Get(ctx context.Context, id string) (*auth.Session, error)
	Delete(ctx context.Context, id string) error
}

type Authenticator interface {
	AuthCodeURL(ctx context.Context) (string, error)
	Complete(ctx context.Context, state, code string) (*auth.Identity, error)
}

// HealthCheck is one dependency checked by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Deps struct {
	Configs  ConfigStore
	Guilds   GuildResolver
	Sessions SessionStore
	OAuth    Authenticator
	Health   []HealthCheck
	Log      logrus.FieldLogger
}

// New builds the gin engine. Background work started here ends with ctx.
func New(ctx context.Context, cfg config.Config, deps Deps) (*gin.Engine, error) {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	g := gin.New()
	g.Use(RequestLogger(deps.Log), gin.Recovery())
	g.SetHTMLTemplate(tmpl)
	attachRoutes(ctx, g, cfg, deps)
	return g, nil
}
