// Package kvstore provides the durable key-value storage used for the
// bookmark bundle and its backup copy.
//
// Every backend follows the same contract: Get returns (nil, nil) for a
// missing key, Set overwrites, and Delete of a missing key is not an error.
package kvstore

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned by every backend when called with key "".
var ErrEmptyKey = errors.New("key cannot be empty")

// Store is a byte-valued key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by BOOKMARK_STORAGE.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)
