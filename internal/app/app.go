package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/clock"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/config"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/goroutine"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/instrument"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/jwt"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/messaging"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/mfa"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/otp"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/router"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/uid"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine    *goroutine.Manager
	validator    validator.Validator
	clock        clock.Clocker
	uuid         uid.StringID
	totp         otp.OTP
	jwt          jwt.JWT
	mfaEncryptor mfa.Encryptor

	// resources
	dbConn    *pgxpool.Pool
	messaging messaging.Messaging

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
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
