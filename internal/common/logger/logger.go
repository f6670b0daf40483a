package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

var (
	mu      sync.RWMutex
	handler slog.Handler = newHandler(os.Stdout, slog.LevelDebug)
)

// Setup replaces the output and level shared by every Logger.
func Setup(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	handler = newHandler(w, parseLevel(level))
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	return &contextHandler{Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// contextHandler adds request and trace identifiers found in the context.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := middleware.GetReqID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		r.AddAttrs(slog.String("span_id", sc.SpanID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

type Logger struct{ service string }

func New(service string) *Logger { return &Logger{service: service} }

func (l *Logger) log(ctx context.Context, level slog.Level, action string, fields map[string]any, err error) {
	mu.RLock()
	h := handler
	mu.RUnlock()

	attrs := make([]any, 0, 2*len(fields)+6)
	attrs = append(attrs, "service", l.service, "action", action, "hostname", hostname())
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	if err != nil {
		attrs = append(attrs, slog.Group("error", "msg", err.Error()))
	}
	slog.New(h).Log(ctx, level, action, attrs...)
}

func (l *Logger) Info(action string, fields map[string]any)  { l.log(context.Background(), slog.LevelInfo, action, fields, nil) }
func (l *Logger) Debug(action string, fields map[string]any) { l.log(context.Background(), slog.LevelDebug, action, fields, nil) }
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(context.Background(), slog.LevelError, action, fields, err)
}

func (l *Logger) InfoContext(ctx context.Context, action string, fields map[string]any) {
	l.log(ctx, slog.LevelInfo, action, fields, nil)
}

func (l *Logger) DebugContext(ctx context.Context, action string, fields map[string]any) {
	l.log(ctx, slog.LevelDebug, action, fields, nil)
}

func (l *Logger) WarnContext(ctx context.Context, action string, err error, fields map[string]any) {
	l.log(ctx, slog.LevelWarn, action, fields, err)
}

func (l *Logger) ErrorContext(ctx context.Context, action string, err error, fields map[string]any) {
	l.log(ctx, slog.LevelError, action, fields, err)
}

var (
	hostOnce sync.Once
	host     string
)

func hostname() string {
	hostOnce.Do(func() { host, _ = os.Hostname() })
	return host
}
