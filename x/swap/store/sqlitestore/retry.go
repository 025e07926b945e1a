package sqlitestore

import (
	"math/rand"
	"strings"
	"time"
)

// Under concurrent access, WAL mode SQLite can produce transient errors
// like SQLITE_BUSY and SQLITE_LOCKED. The busy_timeout pragma handles
// SQLITE_BUSY at the connection level, the rest needs application level
// retries with backoff.

const (
	retryAttempts  = 3
	retryBaseDelay = 50 * time.Millisecond
	retryMaxDelay  = 500 * time.Millisecond
)

func retryOnContention(fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= retryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isTransient(lastErr) {
			return lastErr
		}
		if attempt < retryAttempts {
			time.Sleep(backoffDelay(attempt))
		}
	}
	return lastErr
}

// isTransient detects SQLite errors that can be resolved by retrying. The
// modernc.org/sqlite driver embeds the SQLite error code in the message.
func isTransient(err error) bool {
	msg := err.Error()
	for _, pattern := range []string{
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"database is locked",
		"database table is locked",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLITE_CONSTRAINT_UNIQUE")
}

// backoffDelay is exponential with jitter in [0, retryBaseDelay).
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay << uint(attempt)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay + time.Duration(rand.Int63n(int64(retryBaseDelay)))
}
