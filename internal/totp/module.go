package totp

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/clock"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/config"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/goroutine"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/instrument"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/messaging"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/mfa"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/otp"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/router"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/uid"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/validator"
	"github.com/sidiqpratomo/totpadmin/internal/totp/inbound"
	"github.com/sidiqpratomo/totpadmin/internal/totp/outbound/db"
	"github.com/sidiqpratomo/totpadmin/internal/totp/outbound/mq"
	"github.com/sidiqpratomo/totpadmin/internal/totp/usecase"
)

type Dependency struct {
	DBConn       *pgxpool.Pool              `validate:"required"`
	Goroutine    *goroutine.Manager         `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Messaging    messaging.Messaging        `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UUID         uid.StringID               `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         otp.OTP                    `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	store := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        store,
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Config:        dep.Config,
		MFAEncryptor:  dep.MFAEncryptor,
		UUID:          dep.UUID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
