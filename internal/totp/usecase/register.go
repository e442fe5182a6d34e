package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sidiqpratomo/totpadmin/internal/pkg/goerror"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/mfa"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/otp"
	"github.com/sidiqpratomo/totpadmin/internal/totp/entity"
)

type RegisterInput struct {
	Realm         string `validate:"required"`
	UserID        string `validate:"required"`
	DeviceName    string `validate:"required,min=1,max=100"`
	EncodedSecret string `validate:"required"`
	InitialCode   string `validate:"required,numeric"`
	Overwrite     bool
}

type RegisterOutput struct {
	CredentialID string
	Overwritten  bool
}

// Register binds a secret to the target user as a stored TOTP credential.
//
// The initial code must match at the current time step exactly. An existing
// credential under the same device name is a conflict unless overwrite is
// set, in which case it is replaced in a single transaction.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	user, err := s.authorize(ctx, in.Realm, in.UserID)
	if err != nil {
		return nil, err
	}

	in.DeviceName = strings.TrimSpace(in.DeviceName)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidRequest(err, "Invalid request")
	}

	secret, err := otp.DecodeSecret(in.EncodedSecret)
	if err != nil || len(secret) != otp.SecretLength {
		slog.WarnContext(ctx, "rejected malformed totp secret", "realm", in.Realm, "user_id", user.ID)
		return nil, goerror.NewInvalidRequest(nil, "Invalid secret")
	}

	existing, err := s.repoDB.GetCredentialByLabel(ctx, in.Realm, user.ID, in.DeviceName, entity.CredentialTypeOTP)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get credential", "realm", in.Realm, "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// The conflict answer never depends on code validity, so probing for
	// device names does not burn valid codes.
	if existing != nil && !in.Overwrite {
		return nil, goerror.NewBusiness("OTP credential already exists", goerror.CodeConflict)
	}

	policy := s.policy()
	if !s.totp.Validate(in.InitialCode, secret, s.clock.Now(), policy, registrationSkew) {
		slog.WarnContext(ctx, "initial totp code mismatch", "realm", in.Realm, "user_id", user.ID)
		return nil, goerror.NewInvalidRequest(nil, "Invalid initial OTP code")
	}

	secretData, err := s.mfaEncryptor.Encrypt(secret, mfa.Scope{
		Realm:   in.Realm,
		UserID:  user.ID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "realm", in.Realm, "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	cred := entity.TotpCredential{
		ID:         s.uuid.Generate(),
		Realm:      in.Realm,
		UserID:     user.ID,
		UserLabel:  in.DeviceName,
		Type:       entity.CredentialTypeOTP,
		SecretData: secretData,
		Algorithm:  policy.Algorithm,
		Digits:     policy.Digits,
		Period:     policy.Period,
		CreatedAt:  s.clock.Now(),
	}

	if existing != nil {
		err = s.repoDB.ReplaceCredential(ctx, existing.ID, cred)
	} else {
		err = s.repoDB.CreateCredential(ctx, cred)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo persist credential", "realm", in.Realm, "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishRegistered(ctx, CredentialRegisteredEvent{
		Realm:        in.Realm,
		UserID:       user.ID,
		CredentialID: cred.ID,
		DeviceName:   in.DeviceName,
		Overwritten:  existing != nil,
	})

	return &RegisterOutput{
		CredentialID: cred.ID,
		Overwritten:  existing != nil,
	}, nil
}

// publishRegistered emits the audit event off the request path. The
// registration already committed; a broker failure is logged and dropped.
func (s *Usecase) publishRegistered(ctx context.Context, evt CredentialRegisteredEvent) {
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishCredentialRegistered(ctx, evt); err != nil {
			slog.ErrorContext(ctx, "failed to publish credential registered event",
				"realm", evt.Realm, "user_id", evt.UserID, "credential_id", evt.CredentialID, "error", err)
		}
		return nil
	})
}
