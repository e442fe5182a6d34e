package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

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
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type fixedClock struct{ at time.Time }

func (f fixedClock) Now() time.Time { return f.at }

type fakeRepoDB struct {
	mu    sync.Mutex
	users map[string]entity.User
	creds map[string]entity.TotpCredential

	getUserErr error
	getCredErr error
	createErr  error
	replaceErr error

	created  int
	replaced int
}

func newFakeRepoDB() *fakeRepoDB {
	return &fakeRepoDB{
		users: make(map[string]entity.User),
		creds: make(map[string]entity.TotpCredential),
	}
}

func userKey(realm, id string) string { return realm + "/" + id }

func credKey(realm, userID, label string, typ entity.CredentialType) string {
	return realm + "/" + userID + "/" + label + "/" + typ.String()
}

func (f *fakeRepoDB) addUser(u entity.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[userKey(u.Realm, u.ID)] = u
}

func (f *fakeRepoDB) credentials() []entity.TotpCredential {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]entity.TotpCredential, 0, len(f.creds))
	for _, c := range f.creds {
		out = append(out, c)
	}
	return out
}

func (f *fakeRepoDB) GetUserByID(_ context.Context, realm, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getUserErr != nil {
		return nil, f.getUserErr
	}

	u, ok := f.users[userKey(realm, id)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (f *fakeRepoDB) GetCredentialByLabel(
	_ context.Context, realm, userID, label string, typ entity.CredentialType,
) (*entity.TotpCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getCredErr != nil {
		return nil, f.getCredErr
	}

	c, ok := f.creds[credKey(realm, userID, label, typ)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &c, nil
}

func (f *fakeRepoDB) CreateCredential(_ context.Context, cred entity.TotpCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}

	f.creds[credKey(cred.Realm, cred.UserID, cred.UserLabel, cred.Type)] = cred
	f.created++
	return nil
}

func (f *fakeRepoDB) ReplaceCredential(_ context.Context, oldID string, cred entity.TotpCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.replaceErr != nil {
		return f.replaceErr
	}

	for k, c := range f.creds {
		if c.ID == oldID {
			delete(f.creds, k)
		}
	}
	f.creds[credKey(cred.Realm, cred.UserID, cred.UserLabel, cred.Type)] = cred
	f.replaced++
	return nil
}

func (f *fakeRepoDB) DeleteCredential(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for k, c := range f.creds {
		if c.ID == id {
			delete(f.creds, k)
		}
	}
	return nil
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []CredentialRegisteredEvent
	err    error
}

func (f *fakeMessaging) PublishCredentialRegistered(_ context.Context, msg CredentialRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, msg)
	return nil
}

func (f *fakeMessaging) published() []CredentialRegisteredEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]CredentialRegisteredEvent(nil), f.events...)
}

type testFixture struct {
	uc        *Usecase
	repo      *fakeRepoDB
	msg       *fakeMessaging
	goroutine *goroutine.Manager
	encryptor mfa.Encryptor
	totp      *otp.TOTP
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  tz: UTC\n"))
	require.NoError(t, err)

	repo := newFakeRepoDB()
	msg := &fakeMessaging{}
	manager := goroutine.NewManager(4)
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	encryptor := mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: key})
	totp := otp.NewTOTP()

	uc := New(Dependency{
		RepoDB:        repo,
		RepoMessaging: msg,
		Validator:     v,
		Config:        cfg,
		MFAEncryptor:  encryptor,
		UUID:          uid.NewUUID(),
		Totp:          totp,
		Clock:         fixedClock{at: testNow},
		Instrument:    instrument.NewNoop(),
		Goroutine:     manager,
	})

	return &testFixture{
		uc:        uc,
		repo:      repo,
		msg:       msg,
		goroutine: manager,
		encryptor: encryptor,
		totp:      totp,
	}
}

// callerCtx returns a context authenticated as a service account holding the
// given realm roles.
func callerCtx(roles ...string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		ServiceAccountClientID: "admin-cli",
		RealmAccess:            jwt.RealmAccess{Roles: roles},
	})
}

func managerCtx() context.Context {
	return callerCtx(RoleManageTOTP)
}

var testUser = entity.User{
	ID:       "u-1",
	Realm:    "acme",
	Username: "alice",
	Email:    "alice@example.com",
}

var testServiceUser = entity.User{
	ID:                     "svc-u",
	Realm:                  "acme",
	Username:               "service-account-admin-cli",
	ServiceAccountClientID: "admin-cli",
}
