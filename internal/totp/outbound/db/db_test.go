package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/goerror"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/instrument"
	"github.com/sidiqpratomo/totpadmin/internal/totp/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewDB(mock, instrument.NewNoop()), mock
}

var testCredential = entity.TotpCredential{
	ID:         "cred-1",
	Realm:      "acme",
	UserID:     "u-1",
	UserLabel:  "phone",
	Type:       entity.CredentialTypeOTP,
	SecretData: []byte{0x01, 0x02, 0x03},
	Algorithm:  "SHA1",
	Digits:     6,
	Period:     30,
	CreatedAt:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
}

func credentialArgs(cred entity.TotpCredential) []any {
	return []any{
		cred.ID, cred.Realm, cred.UserID, cred.UserLabel, cred.Type.String(),
		cred.SecretData, cred.Algorithm, cred.Digits, cred.Period, cred.CreatedAt,
	}
}

func TestGetUserByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		s, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(queryGetUserByID)).
			WithArgs("acme", "u-1").
			WillReturnRows(pgxmock.NewRows([]string{"id", "realm", "username", "email", "service_account_client_id"}).
				AddRow("u-1", "acme", "alice", "alice@example.com", ""))

		user, err := s.GetUserByID(context.Background(), "acme", "u-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.False(t, user.IsServiceAccount())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ServiceAccount", func(t *testing.T) {
		s, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(queryGetUserByID)).
			WithArgs("acme", "svc-u").
			WillReturnRows(pgxmock.NewRows([]string{"id", "realm", "username", "email", "service_account_client_id"}).
				AddRow("svc-u", "acme", "service-account-admin-cli", "", "admin-cli"))

		user, err := s.GetUserByID(context.Background(), "acme", "svc-u")
		require.NoError(t, err)
		assert.True(t, user.IsServiceAccount())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		s, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(queryGetUserByID)).
			WithArgs("acme", "nope").
			WillReturnError(pgx.ErrNoRows)

		_, err := s.GetUserByID(context.Background(), "acme", "nope")
		require.ErrorIs(t, err, goerror.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetCredentialByLabel(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		s, mock := newMockDB(t)

		columns := []string{
			"id", "realm", "user_id", "user_label", "type",
			"secret_data", "algorithm", "digits", "period", "created_at",
		}
		mock.ExpectQuery(regexp.QuoteMeta(queryGetCredentialByLabel)).
			WithArgs("acme", "u-1", "phone", "otp").
			WillReturnRows(pgxmock.NewRows(columns).AddRow(
				testCredential.ID, testCredential.Realm, testCredential.UserID,
				testCredential.UserLabel, testCredential.Type, testCredential.SecretData,
				testCredential.Algorithm, testCredential.Digits, testCredential.Period,
				testCredential.CreatedAt,
			))

		cred, err := s.GetCredentialByLabel(context.Background(), "acme", "u-1", "phone", entity.CredentialTypeOTP)
		require.NoError(t, err)
		assert.Equal(t, testCredential, *cred)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		s, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta(queryGetCredentialByLabel)).
			WithArgs("acme", "u-1", "tablet", "otp").
			WillReturnError(pgx.ErrNoRows)

		_, err := s.GetCredentialByLabel(context.Background(), "acme", "u-1", "tablet", entity.CredentialTypeOTP)
		require.ErrorIs(t, err, goerror.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateCredential(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		s, mock := newMockDB(t)

		mock.ExpectExec(regexp.QuoteMeta(queryCreateCredential)).
			WithArgs(credentialArgs(testCredential)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, s.CreateCredential(context.Background(), testCredential))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UniqueViolation", func(t *testing.T) {
		s, mock := newMockDB(t)

		mock.ExpectExec(regexp.QuoteMeta(queryCreateCredential)).
			WithArgs(credentialArgs(testCredential)...).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := s.CreateCredential(context.Background(), testCredential)
		require.ErrorIs(t, err, goerror.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OtherError", func(t *testing.T) {
		s, mock := newMockDB(t)

		boom := errors.New("connection reset")
		mock.ExpectExec(regexp.QuoteMeta(queryCreateCredential)).
			WithArgs(credentialArgs(testCredential)...).
			WillReturnError(boom)

		err := s.CreateCredential(context.Background(), testCredential)
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReplaceCredential(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		s, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(queryDeleteCredentialByID)).
			WithArgs("old-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(regexp.QuoteMeta(queryCreateCredential)).
			WithArgs(credentialArgs(testCredential)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, s.ReplaceCredential(context.Background(), "old-1", testCredential))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteFails", func(t *testing.T) {
		s, mock := newMockDB(t)

		boom := errors.New("deadlock detected")
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(queryDeleteCredentialByID)).
			WithArgs("old-1").
			WillReturnError(boom)
		mock.ExpectRollback()

		err := s.ReplaceCredential(context.Background(), "old-1", testCredential)
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertConflict", func(t *testing.T) {
		s, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(queryDeleteCredentialByID)).
			WithArgs("old-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(regexp.QuoteMeta(queryCreateCredential)).
			WithArgs(credentialArgs(testCredential)...).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		err := s.ReplaceCredential(context.Background(), "old-1", testCredential)
		require.ErrorIs(t, err, goerror.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginFails", func(t *testing.T) {
		s, mock := newMockDB(t)

		boom := errors.New("too many clients")
		mock.ExpectBegin().WillReturnError(boom)

		err := s.ReplaceCredential(context.Background(), "old-1", testCredential)
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteCredential(t *testing.T) {
	s, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(queryDeleteCredentialByID)).
		WithArgs("cred-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.DeleteCredential(context.Background(), "cred-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
