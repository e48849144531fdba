package store

import (
	"context"
	"time"

	"github.com/matzehuels/linkgraph/pkg/errors"
)

// Options selects and configures a backend for [Open].
type Options struct {
	Backend    string // "null", "file", "redis" or "mongo"
	Dir        string // file
	URL        string // redis, mongo
	Database   string // mongo
	Collection string // mongo

	// Attempts and RetryDelay control how often Open tries to reach a
	// redis or mongo server. Zero means the Default* values.
	Attempts   int
	RetryDelay time.Duration
}

// Open creates the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "null":
		return NewNullStore(), nil
	case backendFile:
		if opts.Dir == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "file store: no directory")
		}
		return NewFileStore(opts.Dir)
	case backendRedis, backendMongo:
		return dial(ctx, opts)
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", opts.Backend)
}

func dial(ctx context.Context, opts Options) (Store, error) {
	attempts, delay := opts.Attempts, opts.RetryDelay
	if attempts <= 0 {
		attempts = DefaultConnectAttempts
	}
	if delay <= 0 {
		delay = DefaultConnectDelay
	}
	var s Store
	err := retry(ctx, attempts, delay, func() error {
		var err error
		if opts.Backend == backendRedis {
			s, err = NewRedisStore(ctx, opts.URL)
		} else {
			s, err = NewMongoStore(ctx, opts.URL, opts.Database, opts.Collection)
		}
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to %s store", opts.Backend)
	}
	return s, nil
}
