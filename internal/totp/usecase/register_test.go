package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sidiqpratomo/totpadmin/internal/pkg/mfa"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = otp.Policy{Algorithm: "SHA1", Digits: 6, Period: 30}

// newEnrollment produces a fresh secret with a code valid at the fixture
// clock's current step.
func newEnrollment(t *testing.T, f *testFixture) (secret []byte, encoded, code string) {
	t.Helper()

	secret, err := f.totp.GenerateSecret()
	require.NoError(t, err)

	code, err = f.totp.GenerateCode(secret, testNow, testPolicy)
	require.NoError(t, err)

	return secret, otp.EncodeSecret(secret), code
}

func registerIn(encoded, code string) RegisterInput {
	return RegisterInput{
		Realm:         "acme",
		UserID:        "u-1",
		DeviceName:    "phone",
		EncodedSecret: encoded,
		InitialCode:   code,
	}
}

// wrongCode returns a numeric code guaranteed to differ from the given one.
func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		secret, encoded, code := newEnrollment(t, f)

		out, err := f.uc.Register(managerCtx(), registerIn(encoded, code))
		require.NoError(t, err)
		require.NotEmpty(t, out.CredentialID)
		assert.False(t, out.Overwritten)

		creds := f.repo.credentials()
		require.Len(t, creds, 1)
		cred := creds[0]
		assert.Equal(t, out.CredentialID, cred.ID)
		assert.Equal(t, "acme", cred.Realm)
		assert.Equal(t, "u-1", cred.UserID)
		assert.Equal(t, "phone", cred.UserLabel)
		assert.Equal(t, "SHA1", cred.Algorithm)
		assert.Equal(t, uint(6), cred.Digits)
		assert.Equal(t, uint(30), cred.Period)
		assert.Equal(t, testNow, cred.CreatedAt)

		// The stored blob decrypts back to the submitted secret only under
		// the owning user's scope.
		plain, err := f.encryptor.Decrypt(cred.SecretData, mfa.Scope{
			Realm:   "acme",
			UserID:  "u-1",
			Purpose: mfa.PurposeOTPSeed,
		})
		require.NoError(t, err)
		assert.Equal(t, secret, plain)

		require.NoError(t, f.goroutine.Wait())
		events := f.msg.published()
		require.Len(t, events, 1)
		assert.Equal(t, "acme", events[0].Realm)
		assert.Equal(t, "u-1", events[0].UserID)
		assert.Equal(t, out.CredentialID, events[0].CredentialID)
		assert.Equal(t, "phone", events[0].DeviceName)
		assert.False(t, events[0].Overwritten)
	})

	t.Run("DriftedInitialCodeRejected", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		secret, encoded, _ := newEnrollment(t, f)

		// A code from the previous step would pass ordinary verification
		// but not enrollment, which tolerates no drift.
		stale, err := f.totp.GenerateCode(secret, testNow.Add(-30*time.Second), testPolicy)
		require.NoError(t, err)
		if current, _ := f.totp.GenerateCode(secret, testNow, testPolicy); current == stale {
			t.Skip("adjacent steps produced identical codes")
		}

		_, err = f.uc.Register(managerCtx(), registerIn(encoded, stale))
		gerr := requireStatus(t, err, http.StatusBadRequest)
		assert.Equal(t, "Invalid initial OTP code", gerr.Msg())

		assert.Empty(t, f.repo.credentials())
		require.NoError(t, f.goroutine.Wait())
		assert.Empty(t, f.msg.published())
	})

	t.Run("ConflictWithoutOverwrite", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		_, encoded, code := newEnrollment(t, f)

		_, err := f.uc.Register(managerCtx(), registerIn(encoded, code))
		require.NoError(t, err)

		_, freshEncoded, freshCode := newEnrollment(t, f)

		// The conflict wins whether or not the submitted code is valid, so
		// the response leaks nothing about code correctness.
		for name, initial := range map[string]string{
			"ValidCode":   freshCode,
			"InvalidCode": wrongCode(freshCode),
		} {
			t.Run(name, func(t *testing.T) {
				_, err := f.uc.Register(managerCtx(), registerIn(freshEncoded, initial))
				gerr := requireStatus(t, err, http.StatusConflict)
				assert.Equal(t, "OTP credential already exists", gerr.Msg())
			})
		}

		require.Len(t, f.repo.credentials(), 1)
	})

	t.Run("OverwriteReplaces", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		_, encoded, code := newEnrollment(t, f)

		first, err := f.uc.Register(managerCtx(), registerIn(encoded, code))
		require.NoError(t, err)

		_, freshEncoded, freshCode := newEnrollment(t, f)
		in := registerIn(freshEncoded, freshCode)
		in.Overwrite = true

		second, err := f.uc.Register(managerCtx(), in)
		require.NoError(t, err)
		assert.True(t, second.Overwritten)
		assert.NotEqual(t, first.CredentialID, second.CredentialID)

		creds := f.repo.credentials()
		require.Len(t, creds, 1)
		assert.Equal(t, second.CredentialID, creds[0].ID)
		assert.Equal(t, 1, f.repo.replaced)

		require.NoError(t, f.goroutine.Wait())
		events := f.msg.published()
		require.Len(t, events, 2)
		assert.True(t, events[0].Overwritten || events[1].Overwritten)
	})

	t.Run("MalformedSecret", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)

		_, err := f.uc.Register(managerCtx(), registerIn("not-base32!!", "123456"))
		gerr := requireStatus(t, err, http.StatusBadRequest)
		assert.Equal(t, "Invalid secret", gerr.Msg())
	})

	t.Run("WrongLengthSecret", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)

		short := otp.EncodeSecret([]byte("tooshort"))
		_, err := f.uc.Register(managerCtx(), registerIn(short, "123456"))
		gerr := requireStatus(t, err, http.StatusBadRequest)
		assert.Equal(t, "Invalid secret", gerr.Msg())
	})

	t.Run("MissingDeviceName", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		_, encoded, code := newEnrollment(t, f)

		in := registerIn(encoded, code)
		in.DeviceName = "   "
		_, err := f.uc.Register(managerCtx(), in)
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("NonNumericInitialCode", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		_, encoded, _ := newEnrollment(t, f)

		_, err := f.uc.Register(managerCtx(), registerIn(encoded, "12a456"))
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		_, encoded, code := newEnrollment(t, f)

		_, err := f.uc.Register(context.Background(), registerIn(encoded, code))
		requireStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("ForbiddenWithoutRole", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		_, encoded, code := newEnrollment(t, f)

		_, err := f.uc.Register(callerCtx("manage-users"), registerIn(encoded, code))
		requireStatus(t, err, http.StatusForbidden)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		f := newTestFixture(t)
		_, encoded, code := newEnrollment(t, f)

		_, err := f.uc.Register(managerCtx(), registerIn(encoded, code))
		requireStatus(t, err, http.StatusNotFound)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		f.repo.createErr = errors.New("connection reset")
		_, encoded, code := newEnrollment(t, f)

		_, err := f.uc.Register(managerCtx(), registerIn(encoded, code))
		requireStatus(t, err, http.StatusInternalServerError)

		require.NoError(t, f.goroutine.Wait())
		assert.Empty(t, f.msg.published())
	})

	t.Run("ReplaceFailure", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		_, encoded, code := newEnrollment(t, f)

		_, err := f.uc.Register(managerCtx(), registerIn(encoded, code))
		require.NoError(t, err)

		f.repo.replaceErr = errors.New("deadlock detected")
		_, freshEncoded, freshCode := newEnrollment(t, f)
		in := registerIn(freshEncoded, freshCode)
		in.Overwrite = true

		_, err = f.uc.Register(managerCtx(), in)
		requireStatus(t, err, http.StatusInternalServerError)

		// The old credential stays in place when the swap fails.
		creds := f.repo.credentials()
		require.Len(t, creds, 1)
	})

	t.Run("PublishFailureDoesNotFailRequest", func(t *testing.T) {
		f := newTestFixture(t)
		f.repo.addUser(testUser)
		f.msg.err = errors.New("broker unavailable")
		_, encoded, code := newEnrollment(t, f)

		out, err := f.uc.Register(managerCtx(), registerIn(encoded, code))
		require.NoError(t, err)
		require.NotEmpty(t, out.CredentialID)

		require.NoError(t, f.goroutine.Wait())
		assert.Empty(t, f.msg.published())
	})
}
