package sentryutil

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// ReportError reports an error to the hub attached to the context, falling
// back to the global hub
func ReportError(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		hub.CaptureException(err)
	})
}
