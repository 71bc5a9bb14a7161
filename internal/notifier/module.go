package notifier

import (
	"context"

	"github.com/radityaferdi/otpgate/internal/notifier/inbound"
	"github.com/radityaferdi/otpgate/internal/notifier/outbound/whatsapp"
	"github.com/radityaferdi/otpgate/internal/notifier/usecase"
	"github.com/radityaferdi/otpgate/internal/pkg/config"
	"github.com/radityaferdi/otpgate/internal/pkg/goroutine"
	"github.com/radityaferdi/otpgate/internal/pkg/idempotency"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/messaging"
	"github.com/radityaferdi/otpgate/internal/pkg/storage"
	"github.com/radityaferdi/otpgate/internal/pkg/uid"
	"github.com/radityaferdi/otpgate/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	Messaging   messaging.Messaging
	Storage     storage.Storage
	Idempotency idempotency.Idempotency
	Config      config.Config
	Instrument  instrument.Instrumentation
	UUID        uid.StringID
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
}

func New(dep Dependency) error {
	gateway := whatsapp.NewGateway(whatsapp.Config{
		BaseURL:    dep.Config.GetString("modules.notifier.whatsapp.base_url"),
		Token:      dep.Config.GetString("modules.notifier.whatsapp.token"),
		Timeout:    dep.Config.GetSecond("modules.notifier.whatsapp.timeout_seconds"),
		MaxRetries: dep.Config.GetUint64("modules.notifier.whatsapp.max_retries"),
	}, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		Gateway:     gateway,
		Storage:     dep.Storage,
		Idempotency: dep.Idempotency,
		Config:      dep.Config,
		Validator:   dep.Validator,
		Instrument:  dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
