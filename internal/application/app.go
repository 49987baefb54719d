// Package application wires the simulator's components and owns their
// lifecycle.
package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/llmsim/llmsim/internal/application/usecase"
	"github.com/llmsim/llmsim/internal/domain/models"
	"github.com/llmsim/llmsim/internal/domain/stats"
	"github.com/llmsim/llmsim/internal/infrastructure/config"
	httpServer "github.com/llmsim/llmsim/internal/interfaces/http"
	"github.com/llmsim/llmsim/pkg/safego"
)

// App is the assembled simulator.
type App struct {
	config *config.Config
	logger *zap.Logger

	stats     *stats.Aggregator
	simulator *usecase.Simulator
	registry  *models.Registry
	server    *httpServer.Server
	watcher   *config.Watcher
}

// NewApp builds the application. configPath enables hot reload when
// non-empty; pass "" when no config file is in play.
func NewApp(cfg *config.Config, configPath string, logger *zap.Logger) (*App, error) {
	agg := stats.NewAggregator()
	sim := usecase.NewSimulator(cfg, agg, logger)
	registry := models.NewRegistry(cfg.Models.Available)

	server := httpServer.NewServer(httpServer.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
		Mode: cfg.Server.Mode,
	}, sim, registry, logger)

	app := &App{
		config:    cfg,
		logger:    logger,
		stats:     agg,
		simulator: sim,
		registry:  registry,
		server:    server,
	}

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, logger, app.applyConfig)
		if err != nil {
			// Hot reload is a convenience; a failed watcher should not
			// keep the simulator from starting.
			logger.Warn("Config watcher unavailable", zap.Error(err))
		} else {
			app.watcher = watcher
		}
	}

	return app, nil
}

// applyConfig swaps a freshly validated config into the running app.
func (a *App) applyConfig(cfg *config.Config) {
	a.simulator.SetConfig(cfg)
	a.registry.SetAvailable(cfg.Models.Available)
}

// Stats exposes the aggregator for the TUI.
func (a *App) Stats() *stats.Aggregator {
	return a.stats
}

// Start brings up the HTTP server and the config watcher.
func (a *App) Start(ctx context.Context) error {
	if err := a.server.Start(ctx); err != nil {
		return err
	}
	if a.watcher != nil {
		safego.Go(a.logger, "config-watcher", a.watcher.Start)
	}

	a.logger.Info("llmsim started",
		zap.String("host", a.config.Server.Host),
		zap.Int("port", a.config.Server.Port),
		zap.String("generator", a.config.Response.Generator),
	)
	return nil
}

// Stop tears everything down gracefully.
func (a *App) Stop(ctx context.Context) error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	return a.server.Stop(ctx)
}
