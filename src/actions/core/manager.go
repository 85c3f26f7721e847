package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Module is a long-running part of the process, such as the web panel or the
// gateway bot.
type Module interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// Manager starts modules in order and stops them in reverse.
type Manager struct {
	modules []Module
	log     logrus.FieldLogger
	mu      sync.Mutex
	started bool
}

func NewManager(log logrus.FieldLogger, mods ...Module) *Manager {
	return &Manager{modules: mods, log: log}
}

// Add registers a module before Start.
func (m *Manager) Add(mod Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("module manager: cannot add %s after start", mod.Name())
	}
	m.modules = append(m.modules, mod)
	return nil
}

func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.modules))
	for _, mod := range m.modules {
		out = append(out, mod.Name())
	}
	return out
}

// Start starts every module. On failure the ones already running are stopped.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("module manager already started")
	}

	started := make([]Module, 0, len(m.modules))
	for _, mod := range m.modules {
		if err := mod.Start(ctx); err != nil {
			for i := len(started) - 1; i >= 0; i-- {
				started[i].Stop(ctx)
			}
			return fmt.Errorf("module %s failed: %w", mod.Name(), err)
		}
		m.log.WithField("module", mod.Name()).Info("module started")
		started = append(started, mod)
	}

	m.started = true
	return nil
}

func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	for i := len(m.modules) - 1; i >= 0; i-- {
		m.modules[i].Stop(ctx)
		m.log.WithField("module", m.modules[i].Name()).Info("module stopped")
	}
	m.started = false
}
