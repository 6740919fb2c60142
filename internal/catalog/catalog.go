package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRemote   = "remote"
)

var (
	ErrNotFound = errors.New("posting not found")
	ErrReadOnly = errors.New("catalog is read-only")
)

// Source supplies postings. Implementations return postings in their
// natural iteration order and never share the returned slice.
type Source interface {
	All(ctx context.Context) (*jobs.Postings, error)
	Get(ctx context.Context, id string) (*jobs.Posting, error)
}

// Writer is implemented by sources that accept new postings.
type Writer interface {
	Insert(ctx context.Context, posting *jobs.Posting) (*jobs.Posting, error)
}

type Config struct {
	Driver  string        `mapstructure:"driver"`
	Path    string        `mapstructure:"path"`
	DSN     string        `mapstructure:"dsn"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Open builds the Source selected by cfg.Driver. SQL stores are migrated
// before they are returned.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	logger.Debug("opening catalog", zap.String("driver", driver))

	switch driver {
	case "", DriverFile:
		if cfg.Path == "" {
			return nil, errors.New("catalog path is required for the file driver")
		}
		return NewFileSource(cfg.Path, logger)

	case DriverSQLite, DriverPostgres, "pgx":
		dsn := cfg.DSN
		if dsn == "" && driver == DriverSQLite {
			dsn = cfg.Path
		}
		if dsn == "" {
			return nil, fmt.Errorf("catalog dsn is required for the %s driver", driver)
		}
		store, err := OpenSQL(ctx, driver, dsn, logger)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil

	case DriverRemote:
		if cfg.URL == "" {
			return nil, errors.New("catalog url is required for the remote driver")
		}
		return NewRemoteSource(cfg.URL, cfg.Timeout, logger), nil

	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
}

// Close releases resources held by src when it has any.
func Close(src Source) error {
	if c, ok := src.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func getFromAll(ctx context.Context, src Source, id string) (*jobs.Posting, error) {
	all, err := src.All(ctx)
	if err != nil {
		return nil, err
	}
	posting := all.FindByID(id)
	if posting == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return posting, nil
}
