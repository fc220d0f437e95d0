package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/luizxsoto/checkout-api-sub000/internal/config"
	"github.com/luizxsoto/checkout-api-sub000/internal/httpapi"
	"github.com/luizxsoto/checkout-api-sub000/internal/logging"
	"github.com/luizxsoto/checkout-api-sub000/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.App.Env)
	log.WithFields(logrus.Fields{
		"port":   cfg.Server.Port,
		"driver": cfg.Database.Driver,
		"env":    cfg.App.Env,
	}).Info("config loaded")

	// 2. Connect to database
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	// 3. Create tables and seed the admin user
	if err := db.Bootstrap(ctx, log); err != nil {
		log.WithError(err).Fatal("failed to bootstrap schema")
	}
	log.Info("schema ready")

	// 4. Create Fiber app and routes
	app := httpapi.New(httpapi.Options{
		Development: cfg.App.IsDevelopment(),
		AccessLog:   true,
		Log:         log,
	})
	httpapi.Register(app, httpapi.NewHandlers(db, cfg, log))

	// 5. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.WithField("addr", addr).Info("starting server")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
