package main

import (
	"fmt"
	"path/filepath"

	"github.com/amaumene/cinescout/internal/config"
	"github.com/amaumene/cinescout/internal/services/trending"
	"github.com/amaumene/cinescout/internal/utils"
	"github.com/sirupsen/logrus"
)

// app holds what every command needs
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	store     trending.Store
	blocklist *utils.Blocklist
	keyer     *utils.TermKeyer
}

// bootstrap loads configuration, the logger, the blocklist and the trending store
func bootstrap() (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Debug("Configuration loaded")

	// 3. Open trending store
	store, err := trending.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open trending store: %w", err)
	}
	logger.WithField("driver", cfg.StoreDriver).Debug("Trending store initialized")

	// 4. Load blocklist
	blocklist, err := utils.LoadBlocklist(cfg.BlocklistFile)
	if err != nil {
		logger.WithError(err).Warn("Failed to load blocklist, continuing without it")
		blocklist = utils.NewBlocklist()
	} else if blocklist.Len() > 0 {
		logger.WithField("terms", blocklist.Len()).Info("Blocklist loaded")
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		blocklist: blocklist,
		keyer:     utils.NewTermKeyer(cfg.TrendingNormalize),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Error("Failed to close trending store")
	}
}
