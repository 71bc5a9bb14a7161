package usecase

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"text/template"

	"github.com/radityaferdi/otpgate/internal/pkg/config"
	"github.com/radityaferdi/otpgate/internal/pkg/idempotency"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/storage"
	"github.com/radityaferdi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// fallbackCodeTemplate is used when no template object is configured or the
// configured one cannot be fetched.
const fallbackCodeTemplate = "Your verification code is {{.Code}}. It expires in {{.ExpiresInMinutes}} minutes. Do not share this code with anyone."

type gateway interface {
	SendMessage(ctx context.Context, phoneNumber, body string) error
}

type Usecase struct {
	gateway   gateway
	storage   storage.Storage
	idemp     idempotency.Idempotency
	cfg       config.Config
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	Gateway     gateway
	Storage     storage.Storage
	Idempotency idempotency.Idempotency
	Config      config.Config
	Validator   validator.Validator
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		gateway:   dep.Gateway,
		storage:   dep.Storage,
		idemp:     dep.Idempotency,
		cfg:       dep.Config,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notifier.usecase").Start(ctx, name)
}

// codeTemplate fetches the message template from object storage, falling
// back to the compiled-in default when unavailable.
func (s *Usecase) codeTemplate(ctx context.Context) string {
	bucket := s.cfg.GetString("modules.notifier.template.bucket")
	key := s.cfg.GetString("modules.notifier.template.key")
	if bucket == "" || key == "" {
		return fallbackCodeTemplate
	}

	body, _, err := s.storage.GetObject(ctx, bucket, key)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch message template, using fallback", "bucket", bucket, "key", key, "error", err)
		return fallbackCodeTemplate
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil || len(raw) == 0 {
		slog.WarnContext(ctx, "failed to read message template, using fallback", "bucket", bucket, "key", key, "error", err)
		return fallbackCodeTemplate
	}

	return string(raw)
}

func (s *Usecase) renderTemplate(name, tpl string, data any) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
