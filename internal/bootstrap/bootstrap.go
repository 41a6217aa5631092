// Package bootstrap builds the infrastructure shared by the server and the
// scheduler binaries from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/segyhp/lending-core/internal/config"
	"github.com/segyhp/lending-core/internal/messaging"
	"github.com/segyhp/lending-core/internal/repository"
	"github.com/segyhp/lending-core/internal/repository/memory"
	"github.com/segyhp/lending-core/internal/service"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Storage is the unit of work selected by STORAGE_DRIVER. DB is nil for the
// memory driver.
type Storage struct {
	UnitOfWork repository.UnitOfWork
	DB         *sqlx.DB
}

func (s *Storage) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// RequireSharedStorage rejects the memory driver for processes that act on
// data written by another process. Each process would get its own empty store.
func RequireSharedStorage(cfg *config.Config, process string) error {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return fmt.Errorf("%s needs storage shared with the API; STORAGE_DRIVER %q keeps data inside one process",
			process, config.StorageDriverMemory)
	}
	return nil
}

// OpenStorage connects the configured storage driver.
func OpenStorage(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("using in-memory storage; data is lost on exit")
		return &Storage{UnitOfWork: memory.NewStore()}, nil
	}

	db, err := initDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.WithFields(logrus.Fields{
		"host":     cfg.Database.Host,
		"database": cfg.Database.Name,
	}).Info("connected to postgres")

	return &Storage{UnitOfWork: repository.NewUnitOfWork(db), DB: db}, nil
}

func initDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

// OpenPublisher connects to RabbitMQ when AMQP_URL is set and otherwise drops
// audit events. The returned closer is never nil.
func OpenPublisher(cfg *config.Config, log *logrus.Logger) (service.EventPublisher, io.Closer, error) {
	if cfg.AMQP.URL == "" {
		log.Info("AMQP_URL not set; audit events are not published")
		return service.NoopPublisher(), nopCloser{}, nil
	}

	publisher, err := messaging.NewRabbitMQPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("exchange", cfg.AMQP.Exchange).Info("publishing audit events to RabbitMQ")
	return publisher, publisher, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
