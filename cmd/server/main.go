package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/chonburidev/records-api/auth"
	"github.com/chonburidev/records-api/config"
	"github.com/chonburidev/records-api/httpapi"
	"github.com/chonburidev/records-api/store"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("records-api"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
	logger := lgr.GetLogger("main")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err, "dsn", cfg.DatabaseDSN)
		os.Exit(1)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	kv := store.NewBun(db)
	if err := kv.Init(ctx); err != nil {
		logger.Error("failed to initialize records store", "error", err)
		os.Exit(1)
	}

	creds := store.NewCredentials(kv)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(
		[]byte(cfg.JWTSecret),
		cfg.TokenTTL,
		cfg.TokenIssuer,
		lgr.GetLogger("tokens"),
	)
	svc := auth.NewService(creds, hasher, tokens).
		WithLogger(lgr.GetLogger("auth"))

	app := fiber.New(fiber.Config{
		AppName:               "records-api",
		DisableStartupMessage: cfg.Production,
	})

	corsCfg := cors.Config{}
	if cfg.AllowOrigins != "" {
		// credentialed CORS needs explicit origins; the cookie never flows
		// under the wildcard
		corsCfg.AllowOrigins = cfg.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	app.Use(cors.New(corsCfg))

	api := httpapi.New(cfg, svc, tokens, kv, lgr.GetLogger("http"))
	api.Register(app)

	go func() {
		if err := app.Listen(cfg.ListenAddr()); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("server listening", "addr", cfg.ListenAddr())

	waitExitSignal()

	logger.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	if err := db.Close(); err != nil {
		logger.Error("database close failed", "error", err)
	}
}

func waitExitSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
