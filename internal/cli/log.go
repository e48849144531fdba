package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger logs to w at level with a short wall-clock timestamp
// (15:04:05.00). Commands get it from their context, see loggerFrom.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
	})
}

// timed starts a clock. The returned func logs msg at info level with
// keyvals and a "took" field; call it once the step is finished.
func timed(l *log.Logger) func(msg string, keyvals ...any) {
	start := time.Now()
	return func(msg string, keyvals ...any) {
		took := time.Since(start).Round(time.Millisecond)
		l.Info(msg, append(keyvals, "took", took)...)
	}
}

type loggerKey struct{}

func contextWithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFrom returns the command logger carried by ctx, falling back to the
// charmbracelet default logger.
func loggerFrom(ctx context.Context) *log.Logger {
	l, ok := ctx.Value(loggerKey{}).(*log.Logger)
	if !ok {
		return log.Default()
	}
	return l
}
