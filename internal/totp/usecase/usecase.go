package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sidiqpratomo/totpadmin/internal/pkg/clock"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/config"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/goerror"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/goroutine"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/instrument"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/jwt"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/mfa"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/otp"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/uid"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/validator"
	"github.com/sidiqpratomo/totpadmin/internal/totp/entity"
	"go.opentelemetry.io/otel/trace"
)

// RoleManageTOTP is the realm role a service-account caller must hold to
// administer TOTP credentials for other users.
const RoleManageTOTP = "manage-totp"

// registrationSkew is the drift tolerance applied to the initial code at
// registration time. Zero: the code must match the current time step, which
// proves the authenticator clock is in sync before the credential is bound.
const registrationSkew uint = 0

// CredentialRegisteredEvent is published after a registration commits.
type CredentialRegisteredEvent struct {
	Realm        string
	UserID       string
	CredentialID string
	DeviceName   string
	Overwritten  bool
}

type repoMessaging interface {
	PublishCredentialRegistered(ctx context.Context, msg CredentialRegisteredEvent) error
}

type repoDB interface {
	GetUserByID(ctx context.Context, realm, id string) (*entity.User, error)
	GetCredentialByLabel(ctx context.Context, realm, userID, label string, typ entity.CredentialType) (*entity.TotpCredential, error)
	CreateCredential(ctx context.Context, cred entity.TotpCredential) error
	ReplaceCredential(ctx context.Context, oldID string, cred entity.TotpCredential) error
	DeleteCredential(ctx context.Context, id string) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	mfaEncryptor  mfa.Encryptor
	uuid          uid.StringID
	totp          otp.OTP
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	MFAEncryptor  mfa.Encryptor
	UUID          uid.StringID
	Totp          otp.OTP
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		mfaEncryptor:  dep.MFAEncryptor,
		uuid:          dep.UUID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("totp.usecase").Start(ctx, name)
}

// authorize resolves the target user for an operation or fails.
//
// Order matters: the caller's capability is checked before anything about
// the target is revealed, so a role-less caller learns nothing about which
// users exist.
func (s *Usecase) authorize(ctx context.Context, realm, userID string) (*entity.User, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if !clm.IsServiceAccount() || !clm.HasRealmRole(RoleManageTOTP) {
		slog.WarnContext(ctx, "caller lacks totp management capability", "subject", clm.Subject, "realm", realm)
		return nil, goerror.NewBusiness("Access denied", goerror.CodeForbidden)
	}

	user, err := s.repoDB.GetUserByID(ctx, realm, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "target user not found", "realm", realm, "user_id", userID)
		return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "realm", realm, "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if user.IsServiceAccount() {
		slog.WarnContext(ctx, "target user is a service account", "realm", realm, "user_id", userID)
		return nil, goerror.NewInvalidRequest(nil, "Invalid request")
	}

	return user, nil
}

// policy returns the TOTP parameters new credentials are bound to.
func (s *Usecase) policy() otp.Policy {
	algorithm := s.cfg.GetString("modules.totp.algorithm")
	if algorithm == "" {
		algorithm = "SHA1"
	}

	digits := s.cfg.GetUint("modules.totp.digits")
	if digits == 0 {
		digits = 6
	}

	period := s.cfg.GetUint("modules.totp.period")
	if period == 0 {
		period = 30
	}

	return otp.Policy{
		Algorithm: algorithm,
		Digits:    digits,
		Period:    period,
	}
}

// verificationSkew returns the drift tolerance for verifying codes against
// stored credentials.
func (s *Usecase) verificationSkew() uint {
	if skew := s.cfg.GetUint("modules.totp.skew"); skew > 0 {
		return skew
	}

	return 1
}
