// Package app assembles the pieces shared by the API and bot binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"schedula/internal/config"
	"schedula/internal/database"
	"schedula/internal/domain"
	"schedula/internal/events"
	"schedula/internal/google"
	"schedula/internal/logging"
	"schedula/internal/repository"
	"schedula/internal/service"
	"schedula/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Runtime holds the long-lived dependencies of one process.
type Runtime struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	Location   *time.Location
	DB         *database.DB
	Redis      *redis.Client
	Selections domain.SelectionStore
	Events     *events.EventBus
	Sheets     *google.SheetsService
	Worker     *worker.SheetsWorker
	Chat       *service.ChatService
	Bookings   *service.BookingService

	closers []io.Closer
}

// LoadConfigAndLogger reads CONFIG_PATH (default configs/config.yaml) and
// builds the base logger tagged with component.
func LoadConfigAndLogger(component string) (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, component), closer, nil
}

// New opens the database and wires services. Redis and Google Sheets are
// optional: failures there are logged and the process keeps going.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Runtime, error) {
	loc, err := cfg.Assistant.Location()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		DB:       db,
		Events:   events.NewEventBus(),
		closers:  []io.Closer{db},
	}

	rt.initSelections(ctx)
	rt.initSheets(ctx)

	rt.Chat = service.NewChatService(db, rt.Selections, rt.Events, loc, logging.Component(logger, "chat"))
	rt.Bookings = service.NewBookingService(db, loc, cfg.Exports.MaxRangeDays, logging.Component(logger, "bookings"))

	var syncWorker domain.SyncWorker
	if rt.Worker != nil {
		syncWorker = rt.Worker
	}
	SubscribeBookingEvents(ctx, rt.Events, db, syncWorker, logging.Component(logger, "events"))
	return rt, nil
}

func (rt *Runtime) initSelections(ctx context.Context) {
	ttl := rt.Config.Assistant.SelectionTTL
	fallback := repository.NewMemorySelectionStore(ttl)

	if rt.Config.Redis.Address == "" {
		rt.Selections = fallback
		return
	}

	rt.Redis = repository.NewRedisClient(rt.Config.Redis)
	rt.closers = append(rt.closers, rt.Redis)
	if err := repository.Ping(ctx, rt.Redis); err != nil {
		rt.Logger.Warn().Err(err).Str("addr", rt.Config.Redis.Address).Msg("redis unavailable, pending selections kept in memory until it recovers")
	} else {
		rt.Logger.Info().Str("addr", rt.Config.Redis.Address).Msg("redis connected")
	}

	primary := repository.NewRedisSelectionStore(rt.Redis, ttl)
	rt.Selections = repository.NewFailoverSelectionStore(primary, fallback, logging.Component(rt.Logger, "selections"))
}

func (rt *Runtime) initSheets(ctx context.Context) {
	if !rt.Config.Google.Enabled() {
		rt.Logger.Info().Msg("google sheets mirror disabled")
		return
	}

	sheetsSvc, err := google.NewSheetsService(ctx, rt.Config.Google.GoogleCredentialsFile, rt.Config.Google.BookingSpreadSheetID, rt.Location)
	if err != nil {
		rt.Logger.Warn().Err(err).Msg("failed to initialize Google Sheets service")
		return
	}
	if err := sheetsSvc.TestConnection(ctx); err != nil {
		if email, emailErr := google.ServiceAccountEmail(rt.Config.Google.GoogleCredentialsFile); emailErr == nil {
			rt.Logger.Warn().Str("service_account", email).Msg("share the spreadsheet with this account")
		}
		rt.Logger.Warn().Err(err).Msg("Google Sheets connection test failed")
		return
	}
	if err := sheetsSvc.WarmUpCache(ctx); err != nil {
		rt.Logger.Warn().Err(err).Msg("sheets row cache warm-up failed")
	}

	rt.Sheets = sheetsSvc
	retry := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	rt.Worker = worker.NewSheetsWorker(rt.DB, sheetsSvc, rt.Redis, retry, logging.Component(rt.Logger, "sheets_worker"))
	rt.Logger.Info().Msg("Google Sheets service initialized successfully")
}

// StartBackground launches the sync worker and the backup loop; both stop with ctx.
func (rt *Runtime) StartBackground(ctx context.Context) {
	if rt.Worker != nil {
		go rt.Worker.Start(ctx)
	}
	if rt.Config.Backup.Enabled {
		backups := database.NewBackupService(rt.Config.Database.Path, rt.Config.Backup, logging.Component(rt.Logger, "backup"))
		go backups.Start(ctx)
	}
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			rt.Logger.Warn().Err(err).Msg("close resource")
		}
	}
}
