package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"domino/internal/config"
	"domino/internal/game"
	"domino/internal/transport"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "domino-server"
	app.Usage = "serve multi-room dominoes over websockets"
	app.Version = "0.1"
	app.Flags = config.Flags()
	app.Action = appEntry
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func appEntry(c *cli.Context) error {
	cfg := config.FromContext(c)
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.ConfigureLogging()
	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	entry := log.WithField("app", "domino")
	hub := transport.NewHub(entry)
	reg := game.NewRegistry(hub, game.Options{
		TurnDelay: cfg.BotDelay,
		Logger:    entry,
	})
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: transport.NewServer(cfg, reg, hub, entry).Router(),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		entry.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-stop:
	}

	entry.WithField("stats", reg.Stats().String()).Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	reg.Shutdown()
	hub.CloseAll()
	if err := srv.Shutdown(ctx); err != nil {
		entry.WithError(err).Warn("shutdown incomplete")
	}
	return nil
}
