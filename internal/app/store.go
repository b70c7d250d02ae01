package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"ridehail/internal/config"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
	"ridehail/internal/repository/postgres"
)

// Stores groups the repositories the services depend on.
type Stores struct {
	Rides    repository.RideStore
	Drivers  repository.DriverRepository
	Feedback repository.FeedbackRepository

	db *sql.DB
}

// Close releases the underlying database pool, if any.
func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewStores builds the configured store backend. The postgres backend
// applies pending migrations when cfg.Store.AutoMigrate is set.
func NewStores(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application, log logrus.FieldLogger) (*Stores, error) {
	switch cfg.Store.Driver {
	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		store := memory.New(cfg.Store.RideLockTimeout)
		return &Stores{
			Rides:    store.Rides(),
			Drivers:  store.Drivers(),
			Feedback: store.Feedback(),
		}, nil

	case "postgres", "":
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, err
		}
		if cfg.Store.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		log.WithFields(logrus.Fields{
			"host": cfg.Database.Host,
			"db":   cfg.Database.DBName,
		}).Info("connected to PostgreSQL")
		return &Stores{
			Rides:    postgres.NewRideStore(db, cfg.Store.RideLockTimeout),
			Drivers:  postgres.NewDriverRepository(db),
			Feedback: postgres.NewFeedbackRepository(db),
			db:       db,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
