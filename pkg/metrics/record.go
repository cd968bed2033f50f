package metrics

import (
	"context"
	"time"
)

// RecordEvent records a custom event with a name and set of key-value pairs
func RecordEvent(ctx context.Context, eventName string, kvPairs map[string]interface{}) {
	if app, ok := applicationFrom(ctx); ok {
		app.RecordCustomEvent(eventName, kvPairs)
	}
}

// RecordDuration records a custom metric in milliseconds
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app, ok := applicationFrom(ctx); ok {
		app.RecordCustomMetric(metricName, float64(duration)/float64(time.Millisecond))
	}
}
