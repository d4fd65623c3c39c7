package bootstrap

import (
	"context"
	"fmt"

	"QAChecklist/internal/cli/api"
	"QAChecklist/internal/cli/connectivity"
	fsrepo "QAChecklist/internal/cli/repo/fs"
	reposqlite "QAChecklist/internal/cli/repo/sqlite"
	"QAChecklist/internal/cli/service"
	"QAChecklist/internal/config"
	"QAChecklist/internal/logger"

	"go.uber.org/zap"
)

// App: собранные компоненты клиента для одной команды CLI.
type App struct {
	Storage *service.Storage
	Monitor *connectivity.Monitor
	Engine  *service.SyncEngine
	Client  *api.HTTPClient
	Summary *service.SummaryService
	Logger  *zap.SugaredLogger
}

// Open собирает хранилище, монитор сети, клиент сервера и фасад, инициализирует фасад
// и возвращает (app, cleanup, error). cleanup закрывает БД; повторный вызов безопасен.
func Open(ctx context.Context, cfg *config.Config) (*App, func() error, error) {
	level := cfg.LogLevel
	if level == "" {
		// CLI печатает результат в stdout, служебные сообщения, только предупреждения
		level = "warn"
	}
	zl, err := logger.New(cfg.LogEnv, level, "stderr")
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	log := zl.Sugar()

	store := reposqlite.New(cfg.ClientDBPath, cfg.QuotaBytes())
	fallback := fsrepo.FallbackStore{Dir: cfg.FallbackDir}
	monitor := connectivity.NewMonitor(!cfg.Offline)
	client := api.NewHTTPClient(cfg.ServerURL, cfg.SubmitTimeout)
	engine := service.NewSyncEngine(store, monitor, client, log.Named("sync"))
	storage := service.NewStorage(store, fallback, monitor, engine, client, log.Named("storage"))

	if err := storage.Initialize(ctx); err != nil {
		_ = store.Close()
		_ = zl.Sync()
		return nil, nil, fmt.Errorf("open client storage: %w", err)
	}

	closed := false
	cleanup := func() error {
		if closed {
			return nil
		}
		closed = true
		_ = zl.Sync()
		return store.Close()
	}
	return &App{
		Storage: storage,
		Monitor: monitor,
		Engine:  engine,
		Client:  client,
		Summary: service.NewSummaryService(client, log.Named("summary")),
		Logger:  log,
	}, cleanup, nil
}
