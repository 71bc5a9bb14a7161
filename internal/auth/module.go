package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/radityaferdi/otpgate/internal/auth/inbound"
	"github.com/radityaferdi/otpgate/internal/auth/outbound/cache"
	"github.com/radityaferdi/otpgate/internal/auth/outbound/db"
	"github.com/radityaferdi/otpgate/internal/auth/outbound/identity"
	"github.com/radityaferdi/otpgate/internal/auth/outbound/mq"
	"github.com/radityaferdi/otpgate/internal/auth/usecase"
	"github.com/radityaferdi/otpgate/internal/pkg/clock"
	"github.com/radityaferdi/otpgate/internal/pkg/config"
	"github.com/radityaferdi/otpgate/internal/pkg/goroutine"
	"github.com/radityaferdi/otpgate/internal/pkg/hash"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/jwt"
	"github.com/radityaferdi/otpgate/internal/pkg/messaging"
	"github.com/radityaferdi/otpgate/internal/pkg/otpcode"
	"github.com/radityaferdi/otpgate/internal/pkg/phone"
	"github.com/radityaferdi/otpgate/internal/pkg/router"
	"github.com/radityaferdi/otpgate/internal/pkg/uid"
	"github.com/radityaferdi/otpgate/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Codes      otpcode.Generator          `validate:"required"`
	Phones     *phone.Canonicalizer       `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoCache := cache.NewCache(dep.CacheConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	identityClient := identity.NewClient(identity.Config{
		BaseURL:  dep.Config.GetString("modules.auth.identity.base_url"),
		ClientID: dep.Config.GetString("modules.auth.identity.client_id"),
		Timeout:  dep.Config.GetSecond("modules.auth.identity.timeout_seconds"),
	}, dep.JWT, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoCache:     repoCache,
		RepoMessaging: repoMsg,
		Identity:      identityClient,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Codes:         dep.Codes,
		Phones:        dep.Phones,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	dep.Goroutine.Go(ctx, func(ctx context.Context) error {
		uc.SweepExpiredOTPs(ctx)
		return nil
	})

	return nil
}
