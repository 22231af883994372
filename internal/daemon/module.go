// Package daemon composes the client process: it wires the engine channel,
// the reconciler and the preference store into an fx application with
// lifecycle hooks.
package daemon

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/dmaia/echochat/internal/bus"
	"github.com/dmaia/echochat/internal/call"
	"github.com/dmaia/echochat/internal/chat"
	"github.com/dmaia/echochat/internal/client"
	"github.com/dmaia/echochat/internal/config"
	"github.com/dmaia/echochat/internal/engine"
	"github.com/dmaia/echochat/internal/lock"
	"github.com/dmaia/echochat/internal/logging"
	"github.com/dmaia/echochat/internal/notify"
	"github.com/dmaia/echochat/internal/prefs"
	"github.com/dmaia/echochat/internal/session"
)

const engineDialTimeout = 15 * time.Second

// Params holds the resolved store configuration passed to the fx module.
type Params struct {
	StoreName string
	EngineURL string // optional override for testing; empty = use config
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			providePrefsDB,
			providePrefsStore,
			provideModel,
			provideCallMachine,
			provideNotifyManager,
			provideEngine,
			provideController,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		cfg = config.Default()
	}
	if p.EngineURL != "" {
		cfg.EngineURL = p.EngineURL
	}
	return cfg, nil
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.StoreName), p.StoreName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.StoreName); err != nil {
		return nil, err
	}
	logger.Info("acquiring store lock", zap.String("store", p.StoreName))
	l, err := lock.Acquire(session.Dir(p.StoreName))
	if err != nil {
		return nil, err
	}
	logger.Info("store lock acquired")
	return l, nil
}

func providePrefsDB(p Params, logger *zap.Logger) (*prefs.DB, error) {
	dbPath := session.PrefsDBPath(p.StoreName)
	db, err := prefs.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("preference store initialized", zap.String("path", dbPath))
	return db, nil
}

func providePrefsStore(db *prefs.DB) *prefs.Store {
	return prefs.NewStore(db)
}

func provideModel() *chat.Model {
	return chat.NewModel()
}

func provideCallMachine(b *bus.Bus, logger *zap.Logger) *call.Machine {
	return call.NewMachine(b, logger)
}

// ntfPrefs adapts the preference store to the notification manager's view
// of it.
type ntfPrefs struct {
	store *prefs.Store
}

func (p ntfPrefs) NotificationPreviewMode() notify.PreviewMode {
	mode := p.store.GetString(prefs.KeyNotificationPreviewMode, string(notify.PreviewMessage))
	switch notify.PreviewMode(mode) {
	case notify.PreviewMessage, notify.PreviewContact, notify.PreviewHidden:
		return notify.PreviewMode(mode)
	}
	return notify.PreviewMessage
}

func provideNotifyManager(b *bus.Bus, store *prefs.Store, logger *zap.Logger) *notify.Manager {
	return notify.NewManager(notify.NewBusPlatform(b), ntfPrefs{store: store}, logger)
}

func provideEngine(cfg *config.Config, logger *zap.Logger) (engine.Engine, error) {
	ctx, cancel := context.WithTimeout(context.Background(), engineDialTimeout)
	defer cancel()
	logger.Info("connecting to engine", zap.String("url", cfg.EngineURL))
	eng, err := engine.Dial(ctx, cfg.EngineURL, logger)
	if err != nil {
		return nil, err
	}
	return eng, nil
}

func provideController(
	eng engine.Engine,
	model *chat.Model,
	calls *call.Machine,
	ntf *notify.Manager,
	store *prefs.Store,
	cfg *config.Config,
	b *bus.Bus,
	logger *zap.Logger,
) *client.Controller {
	return client.New(eng, model, calls, ntf, store, cfg, b, logger)
}

func registerLifecycle(
	lc fx.Lifecycle,
	p Params,
	ctrl *client.Controller,
	eng engine.Engine,
	lk *lock.Lock,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := startup(ctx, p, ctrl, logger); err != nil {
				return err
			}
			ctrl.StartReceiver()
			logger.Info("daemon started", zap.String("store", p.StoreName))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctrl.Stop()
			if err := eng.Close(); err != nil {
				logger.Warn("error closing engine", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}

// startup runs the engine bring-up sequence: point it at the store's
// folders, start it, and load the active profile with its chats.
func startup(ctx context.Context, p Params, ctrl *client.Controller, logger *zap.Logger) error {
	if _, err := ctrl.SendCmd(ctx, chat.SetTempFolder{Path: session.TempDir(p.StoreName)}); err != nil {
		return err
	}
	if _, err := ctrl.SendCmd(ctx, chat.SetFilesFolder{Path: session.FilesDir(p.StoreName)}); err != nil {
		return err
	}

	alreadyRunning, err := ctrl.StartChat(ctx)
	if err != nil {
		return err
	}
	if alreadyRunning {
		logger.Info("engine already running")
	}

	user, err := ctrl.GetActiveUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		logger.Info("no profile yet, waiting for user creation")
		return nil
	}
	logger.Info("active profile loaded", zap.String("name", user.DisplayName()))

	if _, err := ctrl.ListUsers(ctx); err != nil {
		return err
	}
	if err := ctrl.LoadChats(ctx); err != nil {
		return err
	}
	if _, err := ctrl.GetChatItemTTL(ctx); err != nil {
		logger.Warn("could not load item ttl", zap.Error(err))
	}
	return nil
}
