// Package store provides the document store capability backing user memory
// and cost accounting: an opaque path-keyed byte store with sqlite and redis
// backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/stellarlinkco/anova/internal/config"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = errors.New("document not found")

type DocumentStore interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Set(ctx context.Context, path string, data []byte) error
	Close() error
}

// Open returns the configured backend. The sqlite backend is the default and
// the only one that also carries the cost ledger.
func Open(cfg config.StoreConfig) (DocumentStore, error) {
	switch cfg.Type {
	case "", "sqlite":
		return OpenSQLite(cfg.Path)
	case "redis":
		return OpenRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported store type %q", cfg.Type)
	}
}
