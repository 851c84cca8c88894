package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/packout/internal/adjust"
	"github.com/Simplici0/packout/internal/apperrors"
	"github.com/Simplici0/packout/internal/config"
	"github.com/Simplici0/packout/internal/db"
	"github.com/Simplici0/packout/internal/estimate"
	"github.com/Simplici0/packout/internal/labor"
	"github.com/Simplici0/packout/internal/migrations"
	"github.com/Simplici0/packout/internal/pricing"
	"github.com/Simplici0/packout/internal/refdata"
	"github.com/Simplici0/packout/internal/rooms"
	"github.com/Simplici0/packout/internal/seed"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	db        *sql.DB
	store     *refdata.Store
	inferer   *rooms.Inferer
	engine    *pricing.Engine
	adjuster  *adjust.Adjuster
	labor     *labor.Calculator
	generator *estimate.Generator
	settings  estimate.Settings
	auth      *tokenAuth
	logger    *zap.Logger
}

// reference is the read-only data every calculator is built from. Factors is
// nil when no correction table is available.
type reference struct {
	Pricing   []pricing.Reference
	Baselines rooms.Baselines
	Factors   *adjust.Table
}

type serverOptions struct {
	Settings   estimate.Settings
	Thresholds rooms.Thresholds
	TaxRate    float64
	APIToken   string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if cfg.IsDev() || cfg.AutoMigrate {
		if err := migrations.Up(database, cfg.MigrationsDir, logger); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	seedCfg, err := loadReferenceFiles(cfg)
	if err != nil {
		return err
	}
	if _, err := seed.Run(database, seedCfg, logger); err != nil {
		return fmt.Errorf("failed to seed reference data: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ref, err := loadReference(ctx, refdata.NewStore(database, logger), logger)
	if err != nil {
		return err
	}

	srv, err := newServer(database, ref, serverOptions{
		Settings:   cfg.Settings(),
		Thresholds: cfg.Thresholds(),
		TaxRate:    cfg.TaxRate,
		APIToken:   cfg.APIToken,
	}, logger)
	if err != nil {
		return err
	}
	if cfg.APIToken == "" {
		logger.Warn("API_TOKEN is not set; /api is open")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadReferenceFiles reads the configured reference files. Unset paths leave
// the seed on its built-in tables.
func loadReferenceFiles(cfg *config.Config) (seed.Config, error) {
	out := seed.Config{Refresh: cfg.SeedRefresh}

	if cfg.PricingPath != "" {
		refs, err := refdata.LoadPricingFile(cfg.PricingPath)
		if err != nil {
			return seed.Config{}, fmt.Errorf("failed to load pricing reference: %w", err)
		}
		out.Pricing = refs
	}
	if cfg.BaselinesPath != "" {
		b, err := refdata.LoadBaselinesFile(cfg.BaselinesPath)
		if err != nil {
			return seed.Config{}, fmt.Errorf("failed to load room baselines: %w", err)
		}
		out.Baselines = b
	}
	if cfg.FactorsPath != "" {
		t, err := refdata.LoadFactorsFile(cfg.FactorsPath)
		if err != nil {
			return seed.Config{}, fmt.Errorf("failed to load correction factors: %w", err)
		}
		out.Factors = &t
	}
	return out, nil
}

// loadReference reads the seeded reference tables back from the database.
func loadReference(ctx context.Context, store *refdata.Store, logger *zap.Logger) (reference, error) {
	refs, err := store.LoadPricing(ctx)
	if err != nil {
		return reference{}, fmt.Errorf("failed to load pricing reference: %w", err)
	}
	if len(refs) == 0 {
		logger.Warn("Pricing reference is empty; every line will price at $0")
	}

	baselines, err := store.LoadBaselines(ctx)
	if err != nil {
		return reference{}, fmt.Errorf("failed to load room baselines: %w", err)
	}

	ref := reference{Pricing: refs, Baselines: baselines}
	factors, err := store.LoadFactors(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("No correction factors stored; corrections are disabled")
	case err != nil:
		return reference{}, fmt.Errorf("failed to load correction factors: %w", err)
	default:
		ref.Factors = &factors
	}

	logger.Info("Reference data loaded",
		zap.Int("pricing_rows", len(refs)),
		zap.Int("room_baselines", len(baselines)),
		zap.Bool("corrections", ref.Factors != nil),
	)
	return ref, nil
}

func newServer(database *sql.DB, ref reference, opts serverOptions, logger *zap.Logger) (*server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	inferer, err := rooms.NewInferer(ref.Baselines, rooms.DefaultAllocations(), opts.Thresholds, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build box inference: %w", err)
	}
	engine, err := pricing.NewEngine(pricing.NewTable(ref.Pricing), opts.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("failed to build pricing engine: %w", err)
	}
	var adjuster *adjust.Adjuster
	if ref.Factors != nil {
		adjuster = adjust.NewAdjuster(*ref.Factors)
	}
	calc := labor.Default()

	generator, err := estimate.NewGenerator(inferer, engine, adjuster, calc, opts.Settings, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build estimate generator: %w", err)
	}

	return &server{
		db:        database,
		store:     refdata.NewStore(database, logger),
		inferer:   inferer,
		engine:    engine,
		adjuster:  adjuster,
		labor:     calc,
		generator: generator,
		settings:  opts.Settings,
		auth:      newTokenAuth(opts.APIToken),
		logger:    logger.Named("http"),
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.middleware)

		r.Get("/labor-rate", s.handleLaborRate)
		r.Post("/cartage", s.handleCartage)
		r.Post("/tli", s.handleTLI)
		r.Post("/rooms/infer", s.handleInferRooms)
		r.Post("/adjust", s.handleAdjust)
		r.Post("/vaults", s.handleVaults)
		r.Post("/pads", s.handlePads)
		r.Post("/price", s.handlePrice)
		r.Post("/price/standard", s.handlePriceStandard)
		r.Post("/price/five-phase", s.handlePriceFivePhase)
		r.Post("/scope", s.handleScope)

		r.Post("/estimates", s.handleCreateEstimate)
		r.Get("/estimates", s.handleListEstimates)
		r.Get("/estimates/{id}", s.handleGetEstimate)
		r.Get("/estimates/{id}/text", s.handleEstimateText)
	})

	return r
}
