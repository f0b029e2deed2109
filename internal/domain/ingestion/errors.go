package ingestion

import (
	"errors"
	"strings"
)

// ErrJobNotFound reports a missing job row. The Store does not return it:
// its lookups report a missing job as a nil result, and failWithRetry
// treats a missing row as a no-op.
var ErrJobNotFound = errors.New("ingestion: job not found")

// ConfigurationError marks a provider misconfiguration. The provider
// registry and the Processor report misconfiguration with plain errors and
// do not return this type.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return "ingestion: configuration error for provider " + e.Provider + ": " + e.Reason
}

// StorageError wraps a failure writing to the Store, surfaced by Enqueue.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "ingestion: storage error during " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// transientMarkers are substrings that identify infrastructure errors the
// worker should retry without logging noise and without treating them as a
// consumed claim attempt.
var transientMarkers = []string{
	"57P03", // Postgres-style "database system is starting up" SQLSTATE, kept for parity with remote stores
	"database system is starting up",
	"connection refused",
	"database is locked",
	"no such host",
}

// IsTransientInfra reports whether err looks like a transient infrastructure
// failure (database starting up, connection refused) rather than a
// processing-logic error.
func IsTransientInfra(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
