package backend

import (
	"context"
	"errors"
	"fmt"

	"finsight/internal/adapters"
	"finsight/internal/amqp"
	applog "finsight/internal/log"
	"finsight/internal/sheets"
	gsheet "finsight/internal/sheets/google"
	"finsight/internal/sheets/memory"
	"finsight/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	publisher, closePublisher := f.createPublisher(ctx, config)

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config, publisher)
	case SheetsBackend:
		result = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		result = f.createMemoryBackend(ctx, config)
	default:
		err = fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		if closePublisher != nil {
			_ = closePublisher()
		}
		return nil, err
	}

	result.Publisher = publisher
	result.Cleanup = joinCleanup(result.Cleanup, closePublisher)
	return result, nil
}

// createPublisher connects to AMQP when configured. A broker that cannot be
// reached is logged and skipped.
func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) (sheets.RefreshPublisher, CleanupFunc) {
	if config.AMQPURL == "" {
		return nil, nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without refresh messages", applog.FieldError, err)
		return nil, nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client, client.Close
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config, publisher sheets.RefreshPublisher) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	adapter := adapters.NewSQLiteAdapter(sqliteRepo, publisher)

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Reader:  adapter,
		Ready:   adapter.Ping,
		Cleanup: sqliteRepo.Close,
	}, nil
}

// createSheetsBackend never fails: a client that cannot be built becomes an
// unconfigured reader so the server still starts and health checks answer.
func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) *BackendResult {
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.Credentials)
	if err != nil {
		f.logger.WarnContext(ctx, "Google Sheets client unavailable, reads will fail", applog.FieldError, err)
		reader := sheets.Unconfigured{Reason: err}
		return &BackendResult{
			Reader: reader,
			Ready: func(context.Context) error {
				return fmt.Errorf("%w: %v", sheets.ErrNotConfigured, reader.Reason)
			},
		}
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets backend")
	return &BackendResult{
		Reader: cli,
		Ready:  func(context.Context) error { return nil },
	}
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) *BackendResult {
	store := memory.NewFromFiles(config.DataDirectory)

	f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", config.DataDirectory)

	return &BackendResult{
		Reader: store,
		Ready:  func(context.Context) error { return nil },
	}
}

func joinCleanup(fns ...CleanupFunc) CleanupFunc {
	var live []CleanupFunc
	for _, fn := range fns {
		if fn != nil {
			live = append(live, fn)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return func() error {
		var errs []error
		for _, fn := range live {
			errs = append(errs, fn())
		}
		return errors.Join(errs...)
	}
}
