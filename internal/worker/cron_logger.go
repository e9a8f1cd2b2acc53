package worker

import (
	"context"
	"fmt"

	"codetech/internal/observability"
)

// cronLogger adapts the observability logger to cron.Logger
type cronLogger struct {
	logger *observability.Logger
}

func newCronLogger(logger *observability.Logger) cronLogger {
	return cronLogger{logger: logger}
}

// Info is used by cron for schedule bookkeeping, so it goes to debug.
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(context.Background(), "cron: "+msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(context.Background(), "cron: "+msg, err, kvFields(keysAndValues))
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
