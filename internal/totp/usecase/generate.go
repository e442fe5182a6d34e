package usecase

import (
	"context"
	"log/slog"

	"github.com/sidiqpratomo/totpadmin/internal/pkg/goerror"
)

type GenerateInput struct {
	Realm  string `validate:"required"`
	UserID string `validate:"required"`
}

type GenerateOutput struct {
	EncodedSecret string
	QRCode        string
}

// Generate creates a fresh secret and enrollment artifact for the target
// user. Nothing is persisted; the secret only becomes a credential once it
// is registered with a valid initial code.
func (s *Usecase) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	ctx, span := s.startSpan(ctx, "Generate")
	defer span.End()

	// Authorization runs before any input validation so a role-less caller
	// learns nothing from the shape of the response.
	user, err := s.authorize(ctx, in.Realm, in.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidRequest(err, "Invalid request")
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "realm", in.Realm, "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	enrollment, err := s.totp.Enroll(s.issuer(in.Realm), user.Username, secret, s.policy())
	if err != nil {
		slog.ErrorContext(ctx, "failed to build totp enrollment", "realm", in.Realm, "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &GenerateOutput{
		EncodedSecret: enrollment.Secret,
		QRCode:        enrollment.QRCode,
	}, nil
}

// issuer is the otpauth issuer shown in authenticator apps. The realm name
// is used unless an explicit issuer is configured.
func (s *Usecase) issuer(realm string) string {
	if issuer := s.cfg.GetString("modules.totp.issuer"); issuer != "" {
		return issuer
	}

	return realm
}
