package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"housevalue/artifact"
	"housevalue/config"
	"housevalue/db"
	qhttp "housevalue/http"
	"housevalue/logging"
	"housevalue/train"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Sugar().Fatalw("failed to load config", "path", *configPath, "error", err)
	}

	logger := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logger.Sync()
	log := logger.Sugar()

	if err := db.InitDB(cfg.Database.Path); err != nil {
		log.Fatalw("failed to initialize database", "path", cfg.Database.Path, "error", err)
	}
	defer db.Close()
	log.Infow("database initialized", "path", cfg.Database.Path)

	service := qhttp.NewService(log)
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:    cfg.Http.Port,
		Timeout: cfg.Http.Timeout.Std(),
	}, service, train.ConfigFrom(cfg), log)

	// Load the last trained bundle if one exists; the server still
	// starts without it and reports "no model loaded" until a
	// training run deploys one.
	if bundle, err := artifact.Load(cfg.Artifact.Path); err == nil {
		service.Swap(bundle)
	} else {
		var loadErr *artifact.LoadError
		if errors.As(err, &loadErr) && os.IsNotExist(loadErr.Err) {
			log.Infow("no artifact yet", "path", cfg.Artifact.Path)
		} else {
			log.Warnw("artifact load failed", "path", cfg.Artifact.Path, "error", err)
		}
	}

	var watcher *artifact.Watcher
	if cfg.Artifact.Watch {
		watcher, err = artifact.NewWatcher(cfg.Artifact.Path, func(bundle *artifact.Bundle) {
			service.Swap(bundle)
			server.Hub().Publish(qhttp.EventDeployment, map[string]interface{}{
				"model_name": bundle.Metadata.ModelName,
				"mape":       bundle.Metadata.MAPE,
			})
		}, log)
		if err != nil {
			log.Warnw("artifact watcher unavailable", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down")

	if err := server.Stop(); err != nil {
		log.Warnw("server forced to shutdown", "error", err)
	}
	log.Infow("exiting")
}
