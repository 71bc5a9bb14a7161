package app

import (
	"log/slog"
	"os"

	"github.com/radityaferdi/otpgate/internal/auth"
	"github.com/radityaferdi/otpgate/internal/notifier"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.auth.enabled") {
		if err := auth.New(a.ctx, auth.Dependency{
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			HMAC:       a.hmac,
			Codes:      a.codes,
			Phones:     a.phones,
			Clock:      a.clock,
			Validator:  a.validator,
			JWT:        a.jwt,
		}); err != nil {
			slog.Error("failed to init module auth", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notifier.enabled") {
		if err := notifier.New(notifier.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Storage:     a.storage,
			Idempotency: a.idemp,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module notifier", "error", err)
			os.Exit(1)
		}
	}
}
