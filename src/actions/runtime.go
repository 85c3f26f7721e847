package actions

import (
	"github.com/sirupsen/logrus"

	"github.com/stake-plus/guildpanel/src/actions/core"
)

type (
	Manager = core.Manager
	Module  = core.Module
)

func NewManager(log logrus.FieldLogger, mods ...Module) *Manager {
	return core.NewManager(log, mods...)
}
