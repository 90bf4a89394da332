package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig controls Retry. The wait before attempt n+1 is n*Backoff.
type RetryConfig struct {
	Name     string
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry is used for the startup connections to Postgres, Redis and RabbitMQ.
func DefaultRetry(name string) RetryConfig {
	return RetryConfig{Name: name, Attempts: 5, Backoff: time.Second}
}

// Retry calls fn until it succeeds, the attempts are used up or ctx ends.
// The last error from fn is returned.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"target":  cfg.Name,
			"attempt": attempt,
			"of":      cfg.Attempts,
		}).Warn("Connection attempt failed")

		if attempt == cfg.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w (last error: %v)", cfg.Name, ctx.Err(), err)
		case <-time.After(time.Duration(attempt) * cfg.Backoff):
		}
	}

	return fmt.Errorf("%s: giving up after %d attempts: %w", cfg.Name, cfg.Attempts, err)
}
