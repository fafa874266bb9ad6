package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"ticketing/config"
	"ticketing/internal/adapters/email"
	"ticketing/internal/domain"
	boltstore "ticketing/internal/repository/bolt"
	"ticketing/internal/repository/jsonfile"
	"ticketing/internal/repository/memory"
	"ticketing/internal/repository/postgres"
	"ticketing/internal/services"
)

// app bundles the wiring shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   domain.TableStore
	service domain.EventService
	closers []io.Closer
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if storeBackend != "" {
		cfg.StoreBackend = storeBackend
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	logger, logCloser := config.NewLogger(cfg)
	a := &app{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	a.store, err = a.openStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mail.Provider,
		FromAddress: cfg.Mail.FromAddress,
		FromName:    cfg.Mail.FromName,
		SES: email.SESConfig{
			Region:             cfg.Mail.AWSRegion,
			AccessKeyID:        cfg.Mail.AWSAccessKeyID,
			SecretAccessKey:    cfg.Mail.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Mail.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	a.service = services.NewEventService(a.store, emailService, logger, cfg.RequestTimeout, cfg.CorruptAsEmpty)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (domain.TableStore, error) {
	a.logger.Info("opening store", "backend", a.cfg.StoreBackend)
	switch a.cfg.StoreBackend {
	case config.BackendFile:
		return jsonfile.NewTableStore(map[domain.Table]string{
			domain.TableEvents: a.cfg.EventsPath(),
			domain.TableCounts: a.cfg.CountsPath(),
		}), nil
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, a.cfg.DBUrl)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		a.closers = append(a.closers, db)
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
		return postgres.NewTableStore(db), nil
	case config.BackendBolt:
		store, err := boltstore.Open(a.cfg.BoltPath, nil)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	case config.BackendMemory:
		a.logger.Warn("memory store selected, state is lost on exit")
		return memory.NewTableStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.cfg.StoreBackend)
	}
}

// Close releases the store and the log file, last opened first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
