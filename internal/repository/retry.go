package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/campushub/campus-api/pkg/errors"
)

const (
	readRetryAttempts = 3
	readRetryDelay    = 50 * time.Millisecond
)

// readWithRetry runs an idempotent read with bounded retries. Missing rows
// and cancelled contexts are returned immediately; anything else is treated
// as a transient store failure, retried, and after the last attempt surfaced
// as ErrUnavailable so callers can distinguish "gone" from "try again".
// Writes are never routed through here: retrying a non-idempotent statement
// could apply it twice.
func readWithRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < readRetryAttempts; attempt++ {
		err = fn()
		if err == nil || errors.Is(err, sql.ErrNoRows) || ctx.Err() != nil {
			return err
		}
		if attempt < readRetryAttempts-1 {
			select {
			case <-time.After(readRetryDelay << attempt):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, appErrors.ErrUnavailable.Message)
}
