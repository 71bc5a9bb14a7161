package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/radityaferdi/otpgate/internal/pkg/clock"
	"github.com/radityaferdi/otpgate/internal/pkg/config"
	"github.com/radityaferdi/otpgate/internal/pkg/goroutine"
	"github.com/radityaferdi/otpgate/internal/pkg/hash"
	"github.com/radityaferdi/otpgate/internal/pkg/idempotency"
	"github.com/radityaferdi/otpgate/internal/pkg/instrument"
	"github.com/radityaferdi/otpgate/internal/pkg/jwt"
	"github.com/radityaferdi/otpgate/internal/pkg/messaging"
	"github.com/radityaferdi/otpgate/internal/pkg/otpcode"
	"github.com/radityaferdi/otpgate/internal/pkg/phone"
	"github.com/radityaferdi/otpgate/internal/pkg/router"
	"github.com/radityaferdi/otpgate/internal/pkg/storage"
	"github.com/radityaferdi/otpgate/internal/pkg/uid"
	"github.com/radityaferdi/otpgate/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	codes     otpcode.Generator
	phones    *phone.Canonicalizer
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
