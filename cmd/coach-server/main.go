package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/coachfit/coach-auth"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	if err := auth.CreateTables(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema")
	}

	repo := auth.NewRepositoryManager(db)

	if err := seedAdmin(ctx, repo, cfg.SeedAdminEmail); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin whitelist")
	}

	lgr := zlog{l: log.With().Str("component", "auth").Logger()}

	resolver := auth.NewRoleResolver(repo.Whitelist())
	provider := auth.NewUserProvider(repo.Users()).WithLogger(lgr)
	auther := auth.NewAuthenticator(provider, resolver, cfg).WithLogger(lgr)

	cookies, err := auth.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create http authenticator")
	}
	cookies.Logger = lgr

	app := fiber.New(fiber.Config{
		AppName:      "coach-server",
		ErrorHandler: auth.NewErrorHandler(lgr),
	})

	ac := auth.NewAuthController(auther, cookies, repo, resolver, cfg).WithLogger(lgr)
	adc := auth.NewAdminController(repo, resolver, cfg).WithLogger(lgr)

	auth.RegisterRoutes(app, ac, adc, cookies, repo, resolver, cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("coach-server listening")

	<-ctx.Done()

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

// seedAdmin guarantees a usable back office on first boot: when the
// whitelist has no active entries and a seed email is configured, add it.
func seedAdmin(ctx context.Context, repo auth.RepositoryManager, email string) error {
	if email == "" {
		return nil
	}

	active, err := repo.Whitelist().CountActive(ctx)
	if err != nil {
		return err
	}
	if active > 0 {
		return nil
	}

	_, err = repo.Whitelist().Add(ctx, &auth.WhitelistEntry{
		Email:    &email,
		Note:     "bootstrap admin",
		IsActive: true,
	})
	return err
}

// zlog adapts zerolog to the auth package logger
type zlog struct {
	l zerolog.Logger
}

func (z zlog) Debug(format string, args ...any) { z.l.Debug().Msgf(format, args...) }
func (z zlog) Info(format string, args ...any)  { z.l.Info().Msgf(format, args...) }
func (z zlog) Warn(format string, args ...any)  { z.l.Warn().Msgf(format, args...) }
func (z zlog) Error(format string, args ...any) { z.l.Error().Msgf(format, args...) }
