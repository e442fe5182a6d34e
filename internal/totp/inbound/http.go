package inbound

import (
	"context"

	"github.com/sidiqpratomo/totpadmin/internal/pkg/router"
	"github.com/sidiqpratomo/totpadmin/internal/totp/usecase"
)

type uc interface {
	Generate(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateOutput, error)
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/realms/:realm/totp-api/:userId/generate", end.Generate)
	r.POST("/realms/:realm/totp-api/:userId/verify", end.Verify)
	r.POST("/realms/:realm/totp-api/:userId/register", end.Register)
}
