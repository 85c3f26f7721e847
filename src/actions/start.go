// Package actions wires the enabled process modules and runs them.
package actions

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	autorolemodule "github.com/stake-plus/guildpanel/src/actions/autorole"
	panelmodule "github.com/stake-plus/guildpanel/src/actions/panel"
	"github.com/stake-plus/guildpanel/src/config"
	"github.com/stake-plus/guildpanel/src/store"
)

type Deps struct {
	Config config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Log    logrus.FieldLogger
}

// StartAll builds the modules enabled in the config and starts them.
func StartAll(ctx context.Context, deps Deps) (*Manager, error) {
	log := deps.Log
	mgr := NewManager(log)

	changes := store.NewChanges(deps.Redis)
	configs := store.NewServerConfigs(deps.DB, changes, log.WithField("component", "store"))

	if deps.Config.EnablePanel {
		mod, err := panelmodule.NewModule(deps.Config, deps.DB, deps.Redis, configs, log)
		if err != nil {
			return nil, fmt.Errorf("actions: init panel module: %w", err)
		}
		if err := mgr.Add(mod); err != nil {
			return nil, fmt.Errorf("actions: add panel module: %w", err)
		}
	} else {
		log.Info("actions: panel module disabled via configuration")
	}

	if deps.Config.EnableAutorole {
		mod, err := autorolemodule.NewModule(deps.Config, configs, changes, log)
		if err != nil {
			return nil, fmt.Errorf("actions: init autorole module: %w", err)
		}
		if err := mgr.Add(mod); err != nil {
			return nil, fmt.Errorf("actions: add autorole module: %w", err)
		}
	} else {
		log.Info("actions: autorole module disabled via configuration")
	}

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}
