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

type VerifyInput struct {
	Realm      string `validate:"required"`
	UserID     string `validate:"required"`
	DeviceName string `validate:"required,min=1,max=100"`
	Code       string `validate:"required,numeric"`
}

// Verify checks a submitted code against the credential stored under the
// device name.
//
// A missing credential and a wrong code both come back as 401 so callers
// cannot enumerate which users have a credential registered. The check is
// read-only: no counters, no lockout.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) error {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	user, err := s.authorize(ctx, in.Realm, in.UserID)
	if err != nil {
		return err
	}

	in.DeviceName = strings.TrimSpace(in.DeviceName)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidRequest(err, "Invalid request")
	}

	cred, err := s.repoDB.GetCredentialByLabel(ctx, in.Realm, user.ID, in.DeviceName, entity.CredentialTypeOTP)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "totp credential not found", "realm", in.Realm, "user_id", user.ID)
		return goerror.NewBusiness("TOTP credential not found", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential", "realm", in.Realm, "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	secret, err := s.mfaEncryptor.Decrypt(cred.SecretData, mfa.Scope{
		Realm:   in.Realm,
		UserID:  user.ID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "realm", in.Realm, "user_id", user.ID, "credential_id", cred.ID, "error", err)
		return goerror.NewServer(err)
	}

	// Codes are validated against the parameters the credential was
	// registered with, not the current service policy.
	policy := otp.Policy{
		Algorithm: cred.Algorithm,
		Digits:    cred.Digits,
		Period:    cred.Period,
	}

	if !s.totp.Validate(in.Code, secret, s.clock.Now(), policy, s.verificationSkew()) {
		slog.WarnContext(ctx, "invalid totp code", "realm", in.Realm, "user_id", user.ID, "credential_id", cred.ID)
		return goerror.NewBusiness("Invalid OTP code", goerror.CodeUnauthorized)
	}

	return nil
}
