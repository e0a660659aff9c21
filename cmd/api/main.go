package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/twmb/franz-go/pkg/kadm"

	"github.com/01moynul/keyu-storefront/internal/admin"
	"github.com/01moynul/keyu-storefront/internal/ai"
	"github.com/01moynul/keyu-storefront/internal/auth"
	"github.com/01moynul/keyu-storefront/internal/catalog"
	"github.com/01moynul/keyu-storefront/internal/config"
	"github.com/01moynul/keyu-storefront/internal/content"
	"github.com/01moynul/keyu-storefront/internal/database"
	"github.com/01moynul/keyu-storefront/internal/events"
	"github.com/01moynul/keyu-storefront/internal/flash"
	"github.com/01moynul/keyu-storefront/internal/handlers"
	"github.com/01moynul/keyu-storefront/internal/middleware"
	"github.com/01moynul/keyu-storefront/internal/observability"
	"github.com/01moynul/keyu-storefront/internal/routes"
	"github.com/01moynul/keyu-storefront/internal/storage"
	"github.com/01moynul/keyu-storefront/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded, relying on the environment")
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// --- Database ---
	db, err := database.OpenDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	gdb, err := database.OpenGorm(db)
	if err != nil {
		return fmt.Errorf("open gorm: %w", err)
	}
	products := store.NewGormStore(gdb)

	// --- Catalog ---
	metrics := observability.Default()
	cache := catalog.NewCache(products, catalog.WithMetrics(metrics))
	engine, err := catalog.NewEngine(cfg.Catalog.PageSize)
	if err != nil {
		return err
	}
	if _, err := cache.Load(ctx); err != nil {
		// The storefront answers 503 until a later fetch succeeds.
		log.Warn("initial catalog load failed", "op", "main.run", "err", err)
	}

	// --- Admin session ---
	cred, err := auth.NewCredential(cfg.Admin.PasswordHash)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokens(cfg.Admin.TokenSecret, cfg.Admin.TokenTTL)
	if err != nil {
		return err
	}
	flashCodec, err := flash.NewCodec(flash.Config{
		HashKey:  []byte(cfg.Flash.HashKey),
		BlockKey: []byte(cfg.Flash.BlockKey),
		Secure:   cfg.Admin.CookieSecure,
	})
	if err != nil {
		return err
	}

	// --- Uploads ---
	uploads, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// --- Click events ---
	var clicks events.Publisher = events.NoopPublisher{}
	if cfg.KafkaEnabled() {
		cl, err := events.NewKafkaClient(ctx, cfg.Kafka.SeedBrokers, cfg.Kafka.ClicksTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		created, err := events.EnsureClickTopic(ctx, kadm.NewClient(cl), cfg.Kafka.ClicksTopic)
		if err != nil {
			log.Warn("click topic not ensured", "op", "main.run", "topic", cfg.Kafka.ClicksTopic, "err", err)
		} else if created {
			log.Info("click topic created", "op", "main.run", "topic", cfg.Kafka.ClicksTopic)
		}
		pub := events.NewKafkaPublisher(cl, events.NewAvroSerde(events.ClickV1Avro()), log)
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			pub.Close(flushCtx)
		}()
		clicks = pub
	}

	// --- Description drafting ---
	var drafter handlers.Drafter
	if cfg.AIEnabled() {
		w, err := ai.NewDescriptionWriter(ctx, cfg.AI.GeminiAPIKey, cfg.AI.Model)
		if err != nil {
			return fmt.Errorf("init description writer: %w", err)
		}
		defer w.Close()
		drafter = w
	}

	terms, err := content.LoadTerms(cfg.Content.TermsFile)
	if err != nil {
		return err
	}

	app := &handlers.Handlers{
		Engine:   engine,
		Catalog:  cache,
		Products: products,
		Admin: admin.NewCoordinator(products, cache,
			admin.WithMetrics(metrics),
			admin.WithImages(uploads),
			admin.WithLogger(log),
		),
		Credential:    cred,
		Session:       middleware.NewAdminSession(tokens, cfg.Admin.CookieSecure, log),
		Flash:         flashCodec,
		Uploads:       uploads,
		Clicks:        clicks,
		Drafter:       drafter,
		TermsPage:     terms,
		Log:           log,
		PublicBaseURL: cfg.HTTP.PublicBaseURL,
	}

	opts := routes.Options{Logger: log, AllowedOrigin: cfg.HTTP.AllowedOrigin}
	if cfg.Storage.Driver == "local" {
		opts.LocalUploadsDir = cfg.Storage.LocalDir
		opts.LocalUploadsURL = cfg.Storage.URLPrefix
	}
	router := routes.SetupRouter(app, opts)

	go cache.RunRefresher(ctx, cfg.Catalog.RefreshInterval)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           servertiming.Middleware(router, nil),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.HTTP.Addr, "storage", cfg.Storage.Driver,
			"kafka", cfg.KafkaEnabled(), "ai", cfg.AIEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
