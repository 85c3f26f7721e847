// Package autorole grants the configured roles to members joining a guild.
package autorole

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/stake-plus/guildpanel/src/logging"
	"github.com/stake-plus/guildpanel/src/types"
)

type ConfigLoader interface {
	Load(ctx context.Context, guildID string) (*types.ServerConfig, error)
}

// RoleAdder is the part of *discordgo.Session the applier writes through.
type RoleAdder interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

type Applier struct {
	loader ConfigLoader
	adder  RoleAdder
	log    logrus.FieldLogger

	attempts int
	backoff  time.Duration

	mu      sync.Mutex
	gen     uint64
	cache   map[string]types.AutoroleConfig
	pending map[string]struct{}
}

func NewApplier(loader ConfigLoader, adder RoleAdder, log logrus.FieldLogger) *Applier {
	return &Applier{
		loader:   loader,
		adder:    adder,
		log:      log.WithField("component", "autorole"),
		attempts: 3,
		backoff:  time.Second,
		cache:    make(map[string]types.AutoroleConfig),
		pending:  make(map[string]struct{}),
	}
}

// Config returns the guild's auto-role settings, loading them on first use.
func (a *Applier) Config(ctx context.Context, guildID string) (types.AutoroleConfig, error) {
	a.mu.Lock()
	ac, ok := a.cache[guildID]
	gen := a.gen
	a.mu.Unlock()
	if ok {
		return ac, nil
	}

	sc, err := a.loader.Load(ctx, guildID)
	if err != nil {
		return types.AutoroleConfig{}, fmt.Errorf("load autorole config %s: %w", guildID, err)
	}
	ac = sc.AutoroleConfig()

	a.mu.Lock()
	// An invalidation during the load may have made ac stale.
	if a.gen == gen {
		a.cache[guildID] = ac
	}
	a.mu.Unlock()
	return ac, nil
}

// Invalidate drops the cached settings so the next join reloads them.
func (a *Applier) Invalidate(guildID string) {
	a.mu.Lock()
	a.gen++
	delete(a.cache, guildID)
	a.mu.Unlock()
	a.log.WithField("guild", guildID).Debug("autorole config invalidated")
}

// Reset drops every cached config, for when change notices may have been missed.
func (a *Applier) Reset() {
	a.mu.Lock()
	a.gen++
	a.cache = make(map[string]types.AutoroleConfig)
	a.mu.Unlock()
	a.log.Debug("autorole config cache reset")
}

// MemberAdd handles a join. Members still in membership screening are
// remembered and served by MemberUpdate once they pass.
func (a *Applier) MemberAdd(ctx context.Context, m *discordgo.Member) {
	if m == nil || m.User == nil || m.User.Bot {
		return
	}
	if m.Pending {
		a.mu.Lock()
		a.pending[pendingKey(m)] = struct{}{}
		a.mu.Unlock()
		return
	}
	a.apply(ctx, m)
}

// MemberUpdate applies roles when a member clears membership screening.
// before may be nil when the gateway state did not hold the member.
func (a *Applier) MemberUpdate(ctx context.Context, m *discordgo.Member, before *discordgo.Member) {
	if m == nil || m.User == nil || m.User.Bot || m.Pending {
		return
	}

	key := pendingKey(m)
	a.mu.Lock()
	_, waiting := a.pending[key]
	delete(a.pending, key)
	a.mu.Unlock()

	if waiting || (before != nil && before.Pending) {
		a.apply(ctx, m)
	}
}

// MemberRemove forgets a member who left while still screening.
func (a *Applier) MemberRemove(m *discordgo.Member) {
	if m == nil || m.User == nil {
		return
	}
	a.mu.Lock()
	delete(a.pending, pendingKey(m))
	a.mu.Unlock()
}

func (a *Applier) apply(ctx context.Context, m *discordgo.Member) {
	entry := a.log.WithFields(logrus.Fields{"guild": m.GuildID, "user": m.User.ID})

	ac, err := a.Config(ctx, m.GuildID)
	if err != nil {
		entry.WithError(err).Error("autorole config unavailable")
		return
	}
	if !ac.Enabled || len(ac.Roles) == 0 {
		return
	}

	has := make(map[string]bool, len(m.Roles))
	for _, r := range m.Roles {
		has[r] = true
	}

	granted := 0
	for _, roleID := range ac.Roles {
		if has[roleID] {
			continue
		}
		has[roleID] = true

		err := withRetry(ctx, a.attempts, a.backoff, func() error {
			return a.adder.GuildMemberRoleAdd(m.GuildID, m.User.ID, roleID, discordgo.WithContext(ctx))
		})
		switch {
		case err == nil:
			granted++
		case logging.IsRateLimit(err):
			entry.WithError(err).WithField("role", roleID).Warn("rate limited adding autorole")
		case logging.IsMissing(err):
			entry.WithField("role", roleID).Warn("autorole no longer exists")
		default:
			entry.WithError(err).WithField("role", roleID).Error("add autorole")
		}
	}
	entry.WithField("granted", granted).Info("autoroles applied")
}

func pendingKey(m *discordgo.Member) string {
	return m.GuildID + ":" + m.User.ID
}
