package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const redactedValue = "***"

// initLogging installs the process-wide slog logger: a JSON handler on
// stdout, optionally fanned out to the OTLP log bridge, with sensitive
// fields (OTP codes, secrets, tokens) redacted before any sink sees them.
func initLogging(serviceName string, lp *sdklog.LoggerProvider, redactFields []string) {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		AddSource:   true,
		ReplaceAttr: renameStandardAttrs,
	})

	var sink slog.Handler = stdout
	if lp != nil {
		sink = &fanoutHandler{sinks: []slog.Handler{
			stdout,
			otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp)),
		}}
	}

	sink = &redactHandler{next: sink, keys: redactKeySet(redactFields)}

	slog.SetDefault(slog.New(&serviceHandler{Handler: sink, service: serviceName}))
}

func renameStandardAttrs(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		// Trim the build path down to the repo-relative file.
		if _, rel, found := strings.Cut(src.File, "/internal/"); found {
			return slog.String("file", fmt.Sprintf("%s:%d", filepath.Join("internal", rel), src.Line))
		}
		return slog.Attr{}
	}
	return a
}

// serviceHandler stamps every record with the service name and, when the
// context carries one, the correlation id propagated via the cID header.
type serviceHandler struct {
	slog.Handler
	service string
}

func (h *serviceHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" && cID != "[invalid_chain_id]" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.service))
	return h.Handler.Handle(ctx, r)
}

type fanoutHandler struct {
	sinks []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, s := range f.sinks {
		if !s.Enabled(ctx, record.Level) {
			continue
		}
		if err := s.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.sinks))
	for i, s := range f.sinks {
		next[i] = s.WithAttrs(attrs)
	}
	return &fanoutHandler{sinks: next}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.sinks))
	for i, s := range f.sinks {
		next[i] = s.WithGroup(name)
	}
	return &fanoutHandler{sinks: next}
}

// redactHandler replaces the values of configured keys with *** across
// plain attrs, groups, maps, and JSON-encoded string or []byte payloads.
// Keys are matched case-insensitively.
type redactHandler struct {
	next slog.Handler
	keys map[string]struct{}
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, record slog.Record) error {
	if len(h.keys) == 0 {
		return h.next.Handle(ctx, record)
	}

	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(h.redactAttr(attr))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &redactHandler{next: h.next.WithAttrs(attrs), keys: h.keys}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{next: h.next.WithGroup(name), keys: h.keys}
}

func (h *redactHandler) redactAttr(attr slog.Attr) slog.Attr {
	if _, hit := h.keys[strings.ToLower(attr.Key)]; hit {
		return slog.String(attr.Key, redactedValue)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		out := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			out = append(out, h.redactAttr(ga))
		}
		attr.Value = slog.GroupValue(out...)
	case slog.KindString:
		if masked, ok := h.redactJSON([]byte(attr.Value.String())); ok {
			attr.Value = slog.StringValue(masked)
		}
	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case map[string]any:
			attr.Value = slog.AnyValue(h.redactValue(v))
		case map[string]string:
			converted := make(map[string]any, len(v))
			for k, s := range v {
				converted[k] = s
			}
			attr.Value = slog.AnyValue(h.redactValue(converted))
		case []any:
			attr.Value = slog.AnyValue(h.redactValue(v))
		case []byte:
			if masked, ok := h.redactJSON(v); ok {
				attr.Value = slog.StringValue(masked)
			}
		}
	}
	return attr
}

func (h *redactHandler) redactJSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}
	masked, err := json.Marshal(h.redactValue(body))
	if err != nil {
		return "", false
	}
	return string(masked), true
}

func (h *redactHandler) redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hit := h.keys[strings.ToLower(k)]; hit {
				out[k] = redactedValue
			} else {
				out[k] = h.redactValue(inner)
			}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = h.redactValue(inner)
		}
		return out
	default:
		return v
	}
}

func redactKeySet(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(strings.ToLower(f))
		if f == "" {
			continue
		}
		keys[f] = struct{}{}
	}
	return keys
}
