package types

import "time"

// AutoroleConfig holds the roles granted to every member that joins a guild.
type AutoroleConfig struct {
	Enabled bool     `gorm:"default:false" json:"enabled"`
	Roles   []string `gorm:"serializer:json;type:text" json:"roles"`
}

// ServerConfig is the per-guild settings record.
type ServerConfig struct {
	GuildID   string         `gorm:"primaryKey;size:32" json:"guildId"`
	Prefix    string         `gorm:"size:16;default:'+'" json:"prefix"`
	Locale    string         `gorm:"size:16;default:'default'" json:"locale"`
	Autorole  AutoroleConfig `gorm:"embedded;embeddedPrefix:autorole_" json:"autorole"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// AutoroleConfig returns a copy of the auto-role settings. Roles is never nil.
func (sc *ServerConfig) AutoroleConfig() AutoroleConfig {
	out := sc.Autorole
	out.Roles = make([]string, len(sc.Autorole.Roles))
	copy(out.Roles, sc.Autorole.Roles)
	return out
}

// SetAutoroleConfig writes the auto-role settings back to the record.
func (sc *ServerConfig) SetAutoroleConfig(ac AutoroleConfig) {
	sc.Autorole = ac
}

// Setting is a runtime configuration value stored in the database.
type Setting struct {
	ID     uint8  `gorm:"primaryKey"`
	Name   string `gorm:"size:32;not null;uniqueIndex"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null;default:1"`
}

// AllModels is the auto-migration set.
var AllModels = []interface{}{
	&ServerConfig{}, &Setting{},
}
