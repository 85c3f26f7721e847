package panel

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stake-plus/guildpanel/src/api/auth"
	"github.com/stake-plus/guildpanel/src/api/webserver"
	"github.com/stake-plus/guildpanel/src/config"
	"github.com/stake-plus/guildpanel/src/guilds"
)

const (
	shutdownTimeout = 10 * time.Second
	tlsPollInterval = 5 * time.Minute
)

// Module serves the dashboard over HTTP(S).
type Module struct {
	cfg     config.Config
	db      *gorm.DB
	rdb     *redis.Client
	configs webserver.ConfigStore
	log     logrus.FieldLogger

	srv    *http.Server
	cancel context.CancelFunc
	done   chan struct{}
}

func NewModule(cfg config.Config, db *gorm.DB, rdb *redis.Client, configs webserver.ConfigStore, log logrus.FieldLogger) (*Module, error) {
	if err := cfg.ValidateOAuth(); err != nil {
		return nil, err
	}
	return &Module{
		cfg:     cfg,
		db:      db,
		rdb:     rdb,
		configs: configs,
		log:     log.WithField("module", "panel"),
	}, nil
}

func (m *Module) Name() string { return "panel" }

func (m *Module) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)

	// REST only; the gateway connection belongs to the autorole module.
	dg, err := discordgo.New("Bot " + m.cfg.DiscordToken)
	if err != nil {
		m.cancel()
		return err
	}

	router, err := webserver.New(ctx, m.cfg, webserver.Deps{
		Configs:  m.configs,
		Guilds:   guilds.NewResolver(dg),
		Sessions: auth.NewSessions(m.rdb, m.cfg.SessionTTL),
		OAuth:    auth.NewDiscord(m.cfg.DiscordClientID, m.cfg.DiscordClientSecret, m.cfg.PublicURL+"/auth/callback", m.rdb),
		Health:   m.healthChecks(),
		Log:      m.log,
	})
	if err != nil {
		m.cancel()
		return err
	}

	m.srv = &http.Server{
		Addr:         ":" + m.cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	tlsOn := m.cfg.EnableSSL
	if tlsOn {
		reloader, err := webserver.NewTLSReloader(ctx, m.cfg.SSLCert, m.cfg.SSLKey, tlsPollInterval, m.log)
		if err != nil {
			m.cancel()
			return err
		}
		m.srv.TLSConfig = reloader.GetConfig()
	}

	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		var err error
		if tlsOn {
			err = m.srv.ListenAndServeTLS("", "")
		} else {
			err = m.srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.WithError(err).Error("http server stopped")
		}
	}()

	m.log.WithFields(logrus.Fields{"port": m.cfg.Port, "ssl": tlsOn}).Info("dashboard listening")
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	if m.srv == nil {
		return
	}
	shutCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := m.srv.Shutdown(shutCtx); err != nil {
		m.log.WithError(err).Warn("http shutdown")
	}
	<-m.done
	m.cancel()
}

func (m *Module) healthChecks() []webserver.HealthCheck {
	return []webserver.HealthCheck{
		{Name: "mysql", Check: func(ctx context.Context) error {
			sqlDB, err := m.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		{Name: "redis", Check: func(ctx context.Context) error {
			return m.rdb.Ping(ctx).Err()
		}},
	}
}
