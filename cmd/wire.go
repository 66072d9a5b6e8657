package cmd

import (
	"fmt"
	"time"

	"github.com/fcastdev/fcast-cli/internal/adapters/api"
	filestore "github.com/fcastdev/fcast-cli/internal/adapters/credentials/file"
	"github.com/fcastdev/fcast-cli/internal/config"
	"github.com/fcastdev/fcast-cli/internal/domain"
	"github.com/fcastdev/fcast-cli/internal/gateway"
	"github.com/fcastdev/fcast-cli/internal/notify"
	"github.com/fcastdev/fcast-cli/internal/ports"
	"github.com/fcastdev/fcast-cli/internal/session"
	"github.com/fcastdev/fcast-cli/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type app struct {
	cfg      config.Config
	client   *api.Client
	sessions *session.Manager
	notifier *notify.Engine
	log      zerolog.Logger
	now      func() time.Time
}

func wireApp() (*app, error) {
	var clock ports.Clock = ports.SystemClock{}

	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel})

	store := filestore.NewStore(cfg.CredentialsDir)

	gw := gateway.New(store,
		gateway.WithRequestTimeout(cfg.RequestTimeout),
		gateway.WithLogger(log.With().Str("component", "gateway").Logger()),
	)

	client, err := api.NewClient(cfg.BaseURL, gw)
	if err != nil {
		return nil, fmt.Errorf("wire api client: %w", err)
	}

	sessions := session.NewManager(client, store,
		session.WithRefreshInterval(cfg.RefreshInterval),
		session.WithLogger(log.With().Str("component", "session").Logger()),
	)
	gw.SetRefresher(sessions)

	notifier := notify.NewEngine(client,
		notify.WithPollInterval(cfg.PollInterval),
		notify.WithListLimit(cfg.ListLimit),
		notify.WithLogger(log.With().Str("component", "notify").Logger()),
	)

	// Session state gates the sync engine: dropping to anonymous stops
	// polling and resets the mirror. Commands that need live polling
	// (watch) start the engine once a session is confirmed.
	sessions.Subscribe(func(s *domain.Session) {
		if s == nil {
			notifier.Stop()
		}
	})

	return &app{
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		notifier: notifier,
		log:      log,
		now:      clock.Now,
	}, nil
}
