// Package store persists per-guild configuration records.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stake-plus/guildpanel/src/types"
)

// ErrInvalidGuild is returned for an empty guild ID.
var ErrInvalidGuild = errors.New("store: invalid guild id")

// Notifier is told about every saved guild.
type Notifier interface {
	Publish(ctx context.Context, guildID string) error
}

type ServerConfigs struct {
	db       *gorm.DB
	notifier Notifier
	log      logrus.FieldLogger
}

// NewServerConfigs builds the store. notifier may be nil.
func NewServerConfigs(db *gorm.DB, notifier Notifier, log logrus.FieldLogger) *ServerConfigs {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ServerConfigs{db: db, notifier: notifier, log: log}
}

// Load returns the guild's record, creating the default one on first use.
func (s *ServerConfigs) Load(ctx context.Context, guildID string) (*types.ServerConfig, error) {
	if guildID == "" {
		return nil, ErrInvalidGuild
	}

	sc := types.ServerConfig{GuildID: guildID}
	err := s.db.WithContext(ctx).
		Where(&types.ServerConfig{GuildID: guildID}).
		FirstOrCreate(&sc).Error
	if err != nil {
		return nil, fmt.Errorf("load server config %s: %w", guildID, err)
	}
	if sc.Autorole.Roles == nil {
		sc.Autorole.Roles = []string{}
	}
	return &sc, nil
}

// Save writes the whole record.
func (s *ServerConfigs) Save(ctx context.Context, sc *types.ServerConfig) error {
	if sc == nil || sc.GuildID == "" {
		return ErrInvalidGuild
	}
	if err := s.db.WithContext(ctx).Save(sc).Error; err != nil {
		return fmt.Errorf("save server config %s: %w", sc.GuildID, err)
	}

	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, sc.GuildID); err != nil {
			s.log.WithError(err).WithField("guild", sc.GuildID).Warn("Publishing config change")
		}
	}
	return nil
}
