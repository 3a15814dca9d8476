package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/ledgerbot/internal/chat/telegram"
	"github.com/MrJamesThe3rd/ledgerbot/internal/config"
	"github.com/MrJamesThe3rd/ledgerbot/internal/conversation"
	"github.com/MrJamesThe3rd/ledgerbot/internal/database"
	"github.com/MrJamesThe3rd/ledgerbot/internal/export"
	ledgerHttp "github.com/MrJamesThe3rd/ledgerbot/internal/http"
	"github.com/MrJamesThe3rd/ledgerbot/internal/http/auth"
	exportHandler "github.com/MrJamesThe3rd/ledgerbot/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/ledgerbot/internal/http/importcsv"
	syncHandler "github.com/MrJamesThe3rd/ledgerbot/internal/http/reconcile"
	recordHandler "github.com/MrJamesThe3rd/ledgerbot/internal/http/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/importer"
	"github.com/MrJamesThe3rd/ledgerbot/internal/participant"
	participantStore "github.com/MrJamesThe3rd/ledgerbot/internal/participant/store"
	"github.com/MrJamesThe3rd/ledgerbot/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	recordStore "github.com/MrJamesThe3rd/ledgerbot/internal/record/store"
	"github.com/MrJamesThe3rd/ledgerbot/internal/session"
)

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Telegram.Token == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}

	lang, err := language.Parse(cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("parsing BOT_LANGUAGE: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default().With("app", cfg.App.Name)

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	sessions, err := sessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	if c, ok := sessions.(io.Closer); ok {
		defer c.Close()
	}

	ledgers := record.Ledgers{Primary: cfg.Ledger.Primary, Agents: cfg.Ledger.Agents}
	recordRepo := recordStore.New(db)

	bot, err := telegram.New(cfg.Telegram.Token,
		telegram.WithBaseURL(cfg.Telegram.BaseURL),
		telegram.WithPollTimeout(cfg.Telegram.PollTimeout),
		telegram.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var (
		recordService      = record.NewService(recordRepo, ledgers, record.WithLogger(logger))
		participantService = participant.NewService(participantStore.New(db))
		importService      = importer.NewService()
		exportService      = export.NewService(recordService,
			export.WithFileResolver(bot),
			export.WithLogger(logger),
		)
		reconcileEngine = reconcile.NewEngine(recordRepo, ledgers,
			reconcile.WithLogger(logger),
			reconcile.WithInterval(cfg.Sync.Interval),
			reconcile.WithEpsilon(cfg.Sync.Epsilon),
		)
	)

	// The engine is built after the manager, whose expiry hook needs it.
	var engine *conversation.Engine

	manager := session.NewManager(sessions, cfg.Session.Timeout,
		session.WithLogger(logger),
		session.WithExpiryHandler(func(ctx context.Context, key string) {
			engine.NotifyExpired(ctx, key)
		}),
	)
	defer manager.Close()

	engine = conversation.NewEngine(recordService, participantService, manager, bot, conversation.Config{
		Admins:        cfg.Bot.Admins,
		OperatorChat:  cfg.Bot.OperatorChat,
		MaxRejections: cfg.Session.MaxRejections,
		Language:      lang,
	}, logger)

	router := ledgerHttp.New(
		ledgerHttp.Options{AllowedOrigins: cfg.CORS.AllowedOrigins, Timeout: cfg.Server.Timeout},
		db,
		auth.New(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		recordHandler.NewHandler(recordService, logger),
		importHandler.NewHandler(importService, recordService, logger),
		syncHandler.NewHandler(reconcileEngine, logger),
		exportHandler.NewHandler(exportService, ledgers.Primary, logger),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("polling telegram")
		return bot.Poll(gctx, engine)
	})

	g.Go(func() error {
		logger.Info("starting reconciliation", "interval", reconcileEngine.Interval())
		return reconcileEngine.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("starting server", "addr", server.Addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func sessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.Redis.URL == "" {
		slog.Warn("REDIS_URL not set, sessions are kept in memory")
		return session.NewMemoryStore(), nil
	}

	// Entries outlive the inactivity window so lazy expiry can notify after a restart.
	store, err := session.NewRedisStore(ctx, cfg.Redis.URL, 2*cfg.Session.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return store, nil
}
