// Package bot runs the gateway connection that applies auto-roles.
package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/stake-plus/guildpanel/src/bot/autorole"
	"github.com/stake-plus/guildpanel/src/config"
)

const handlerTimeout = 15 * time.Second

// ChangeFeed follows saved guild configs from cursor and returns the last
// cursor reached. An empty cursor starts from the newest entry.
type ChangeFeed interface {
	Follow(ctx context.Context, cursor string, fn func(guildID string)) (string, error)
}

type Bot struct {
	session *discordgo.Session
	applier *autorole.Applier
	changes ChangeFeed
	log     logrus.FieldLogger
	retry   time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(cfg config.Config, configs autorole.ConfigLoader, changes ChangeFeed, log logrus.FieldLogger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		session: dg,
		applier: autorole.NewApplier(configs, dg, log),
		changes: changes,
		log:     log,
		retry:   5 * time.Second,
		ctx:     ctx,
		cancel:  cancel,
	}

	b.registerHandlers()

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	return b, nil
}

func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.handleMemberAdd)
	b.session.AddHandler(b.handleMemberUpdate)
	b.session.AddHandler(b.handleMemberRemove)
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return err
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.followChanges()
	}()
	return nil
}

func (b *Bot) Stop() {
	b.cancel()
	b.wg.Wait()
	if err := b.session.Close(); err != nil {
		b.log.WithError(err).Warn("close discord session")
	}
}

// followChanges keeps the applier cache in step with dashboard saves.
// After a stream error it resumes from the last entry seen. If no position
// was ever reached, saves may have been missed and the cache is dropped.
func (b *Bot) followChanges() {
	cursor := ""
	for attempt := 0; ; attempt++ {
		if attempt > 0 && cursor == "" {
			b.applier.Reset()
		}
		next, err := b.changes.Follow(b.ctx, cursor, b.applier.Invalidate)
		if next != "" {
			cursor = next
		}
		if b.ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			b.log.WithError(err).Warn("config change stream interrupted")
		}

		select {
		case <-b.ctx.Done():
			return
		case <-time.After(b.retry):
		}
	}
}

func (b *Bot) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.log.WithFields(logrus.Fields{
		"user":   r.User.Username,
		"guilds": len(r.Guilds),
	}).Info("discord bot logged in")
}

func (b *Bot) handleMemberAdd(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
	ctx, cancel := context.WithTimeout(b.ctx, handlerTimeout)
	defer cancel()
	b.applier.MemberAdd(ctx, e.Member)
}

func (b *Bot) handleMemberUpdate(_ *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	ctx, cancel := context.WithTimeout(b.ctx, handlerTimeout)
	defer cancel()
	b.applier.MemberUpdate(ctx, e.Member, e.BeforeUpdate)
}

func (b *Bot) handleMemberRemove(_ *discordgo.Session, e *discordgo.GuildMemberRemove) {
	b.applier.MemberRemove(e.Member)
}
