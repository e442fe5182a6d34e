package app

import (
	"log/slog"
	"os"

	"github.com/sidiqpratomo/totpadmin/internal/totp"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.totp.enabled") {
		if err := totp.New(totp.Dependency{
			Config:       a.config,
			Instrument:   a.ins,
			UUID:         a.uuid,
			MFAEncryptor: a.mfaEncryptor,
			Clock:        a.clock,
			Validator:    a.validator,
			Router:       a.router,
			Totp:         a.totp,
			DBConn:       a.dbConn,
			Messaging:    a.messaging,
			Goroutine:    a.goroutine,
		}); err != nil {
			slog.Error("failed to init module totp", "error", err)
			os.Exit(1)
		}
	}
}
