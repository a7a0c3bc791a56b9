package server

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hannes/irongate/src/backend/pii"
)

// InitSentry configures error reporting. An empty DSN leaves it disabled.
func InitSentry(dsn, release string) (bool, error) {
	if dsn == "" {
		return false, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:     dsn,
		Release: "irongate@" + release,
	}); err != nil {
		return false, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return true, nil
}

// FlushSentry waits for buffered events to be sent
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// ReportProducerFailure forwards a producer failure to sentry, tagged with the producer name
func ReportProducerFailure(f pii.ProducerFailure) {
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("producer", f.Producer)
		hub.CaptureException(f.Err)
	})
}
