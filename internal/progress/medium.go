package progress

import (
	"context"
	"errors"
)

// ErrMissing is returned by a Medium when a key holds no value.
var ErrMissing = errors.New("progress: key not found")

// Medium is the raw key/value storage behind the Progress Store. Values are
// opaque bytes; the store owns encoding.
type Medium interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// StorageError describes a medium failure. It is logged and counted by the
// store and never returned to callers.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return "progress: " + e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
