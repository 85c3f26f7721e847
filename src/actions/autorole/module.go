package autorole

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/stake-plus/guildpanel/src/bot/autorole"
	"github.com/stake-plus/guildpanel/src/bot/bot"
	"github.com/stake-plus/guildpanel/src/config"
)

// Module runs the gateway bot that grants auto-roles.
type Module struct {
	bot *bot.Bot
}

func NewModule(cfg config.Config, configs autorole.ConfigLoader, changes bot.ChangeFeed, log logrus.FieldLogger) (*Module, error) {
	b, err := bot.New(cfg, configs, changes, log.WithField("module", "autorole"))
	if err != nil {
		return nil, err
	}
	return &Module{bot: b}, nil
}

func (m *Module) Name() string { return "autorole" }

func (m *Module) Start(context.Context) error {
	return m.bot.Start()
}

func (m *Module) Stop(context.Context) {
	m.bot.Stop()
}
