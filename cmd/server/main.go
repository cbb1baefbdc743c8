// Command server runs the plant-disease diagnosis backend: it loads
// configuration, opens the SQLite database, wires the rule engine, the
// advisory client, and the JWT layer, and serves the HTTP API until
// interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agrosage/go-plant-backend/internal/advisory"
	"github.com/agrosage/go-plant-backend/internal/auth"
	"github.com/agrosage/go-plant-backend/internal/config"
	httpapi "github.com/agrosage/go-plant-backend/internal/http"
	"github.com/agrosage/go-plant-backend/internal/observability"
	"github.com/agrosage/go-plant-backend/internal/repo"
	"github.com/agrosage/go-plant-backend/internal/rules"
	"github.com/agrosage/go-plant-backend/internal/sysutil"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", cfg.OTEL.ServiceName).Str("version", version).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	// The rule engine and the advisory client both speak in disease names;
	// resolve them against the catalog at evaluation time so newly created
	// diseases are picked up without a restart.
	resolve := func(name string) (uint, bool) {
		d, err := repo.GetDiseaseByName(context.Background(), db, name)
		if err != nil {
			return 0, false
		}
		return d.ID, true
	}

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET is empty; issued tokens are forgeable, do not run like this in production")
	}
	tokens := auth.NewService(cfg.JWT.Secret, cfg.JWT.TTL)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, httpapi.Deps{
		Tokens:   tokens,
		Rules:    rules.NewEngine(nil, resolve),
		Advisory: advisory.NewClient(cfg.Advisory.URL, cfg.Advisory.Timeout, resolve),
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("bye")
}
