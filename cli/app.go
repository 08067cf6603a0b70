// ABOUTME: Wiring of configuration, logging, metrics, and graph services for commands
// ABOUTME: Built lazily so commands that fail flag validation never open the store
package cli

import (
	"github.com/charmbracelet/log"
	"github.com/harperreed/kinship/audit"
	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/config"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/handlers"
	"github.com/harperreed/kinship/logging"
	"github.com/harperreed/kinship/metrics"
	"github.com/harperreed/kinship/strength"
	"github.com/prometheus/client_golang/prometheus"
)

type app struct {
	cfg      *config.Config
	logger   *log.Logger
	db       *db.DB
	audit    *audit.Layer
	strength *strength.Aggregator
	cascade  *cascade.Engine
	registry *prometheus.Registry
}

func (o *RootOptions) open() (*app, error) {
	if o.app != nil {
		return o.app, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.LoadFile(o.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.Backend != "" {
		cfg.Store.Backend = o.Backend
		if o.StorePath == "" {
			cfg.Store.Path = config.DefaultStorePath(o.Backend)
		}
	}
	if o.StorePath != "" {
		cfg.Store.Path = o.StorePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Log)
	database, err := db.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "backend", cfg.Store.Backend, "path", cfg.Store.Path)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry, cfg.Metrics.Namespace)
	o.app = &app{
		cfg:      cfg,
		logger:   logger,
		db:       database,
		audit:    audit.New(database.Revisions, logger, m),
		strength: strength.New(database.Store, logger, m),
		cascade:  cascade.New(database, cfg.Cascade.Timeout, logger, m),
		registry: registry,
	}
	return o.app, nil
}

func (o *RootOptions) close() error {
	if o.app == nil {
		return nil
	}
	err := o.app.db.Close()
	o.app = nil
	return err
}

func (a *app) services() handlers.Services {
	return handlers.Services{
		DB:       a.db,
		Audit:    a.audit,
		Strength: a.strength,
		Cascade:  a.cascade,
	}
}
