// Package app wires configuration into the client services shared by the
// bridge server and the terminal UI.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alphabot/alphabot-client/internal/api"
	"github.com/alphabot/alphabot-client/internal/config"
	"github.com/alphabot/alphabot-client/internal/credentials"
	natsclient "github.com/alphabot/alphabot-client/internal/nats"
	"github.com/alphabot/alphabot-client/internal/service"
	"github.com/alphabot/alphabot-client/pkg/logger"
)

// App holds the wired services.
type App struct {
	Credentials credentials.Provider
	Client      *api.Client
	Hub         *service.Hub
	Session     *service.SessionController
	Rooms       *service.RoomService
	Accounts    *service.AccountService
	Library     *service.LibraryService

	// NATS and Events are nil when event publishing is disabled.
	NATS   *natsclient.Client
	Events *natsclient.StreamManager

	redis *redis.Client
}

// New builds the services described by cfg. NATS failures disable event
// publishing instead of failing startup; a configured credential store that
// cannot be opened is fatal.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{}

	creds, err := a.openCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Credentials = creds

	var sinks []service.EventSink
	if cfg.NATSURL != "" {
		nc, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
			Name:     "alphabot-client",
		}, log)
		if err != nil {
			log.Warn("event publishing disabled", zap.Error(err))
		} else {
			sm := natsclient.NewStreamManager(nc)
			if err := sm.EnsureStream(ctx); err != nil {
				log.Warn("event publishing disabled", zap.Error(err))
				nc.Close()
			} else {
				a.NATS, a.Events = nc, sm
				sinks = append(sinks, sm)
			}
		}
	}

	a.Client = api.New(api.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}, creds, log)
	a.Hub = service.NewHub(log, sinks...)
	a.Session = service.NewSessionController(a.Client, creds, a.Hub, log)
	a.Rooms = service.NewRoomService(a.Client, a.Session, creds, a.Hub, log)
	a.Accounts = service.NewAccountService(a.Client, a.Session, creds, a.Hub, log)
	a.Library = service.NewLibraryService(a.Client, creds, a.Hub, log)

	log.Info("client services ready",
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.String("credential_store", cfg.CredentialStore),
		zap.Bool("event_publishing", a.Events != nil),
	)
	return a, nil
}

// Close releases connections.
func (a *App) Close() {
	a.Session.Close()
	if a.NATS != nil {
		a.NATS.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *App) openCredentials(ctx context.Context, cfg *config.Config) (credentials.Provider, error) {
	switch cfg.CredentialStore {
	case config.StoreMemory:
		return credentials.NewMemoryStore(), nil
	case config.StoreRedis:
		rdb, err := credentials.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		return credentials.NewRedisStore(rdb, cfg.CredentialKey), nil
	case config.StoreFile, "":
		return credentials.NewFileStore(cfg.CredentialFile, cfg.CredentialKey), nil
	}
	return nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
}
