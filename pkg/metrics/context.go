package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type applicationContextKey struct{}

// WithApplication returns a context carrying the New Relic application used by
// RecordEvent and RecordDuration. A nil app leaves ctx as is, which turns
// recording into a no-op.
func WithApplication(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, applicationContextKey{}, app)
}

func applicationFrom(ctx context.Context) (*newrelic.Application, bool) {
	app, ok := ctx.Value(applicationContextKey{}).(*newrelic.Application)
	return app, ok && app != nil
}
