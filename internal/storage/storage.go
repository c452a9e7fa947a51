// Package storage contains the content-addressable blob store abstraction the
// custody pipeline writes ciphertext to. Implementations return an opaque
// content address on write and fetch blobs by that address on read.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached. On the
// read path it is only surfaced after the bounded retry budget is exhausted;
// on the write path it is surfaced immediately.
var ErrUnavailable = errors.New("storage unavailable")

// PutOptions carries descriptive metadata alongside an uploaded blob.
// All fields are optional.
type PutOptions struct {
	Name     string
	MimeType string
	Metadata map[string]string
}

// Storage stores and fetches opaque blobs by content address. The blobs are
// ciphertext; implementations never see plaintext and must not try to
// interpret what they store.
type Storage interface {
	// Put uploads a blob and returns its content address.
	Put(ctx context.Context, blob []byte, opt PutOptions) (string, error)
	// Get fetches a previously stored blob by content address.
	Get(ctx context.Context, contentAddress string) ([]byte, error)
}

// getWithRetry runs fn up to attempts times with a fixed delay between tries,
// returning the first success. Reads are idempotent so re-running fn is safe.
// After exhaustion the last error is wrapped in ErrUnavailable.
func getWithRetry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(delay):
			}
		}
		blob, err := fn(ctx)
		if err == nil {
			return blob, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}
