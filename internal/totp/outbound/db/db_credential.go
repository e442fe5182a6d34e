package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/sidiqpratomo/totpadmin/internal/totp/entity"
)

const queryGetCredentialByLabel = `
SELECT id, realm, user_id, user_label, type, secret_data, algorithm, digits, period, created_at
FROM totp_credentials
WHERE realm = $1 AND user_id = $2 AND user_label = $3 AND type = $4`

const queryCreateCredential = `
INSERT INTO totp_credentials (id, realm, user_id, user_label, type, secret_data, algorithm, digits, period, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const queryDeleteCredentialByID = `
DELETE FROM totp_credentials WHERE id = $1`

// GetCredentialByLabel returns the credential stored for (realm, user,
// label, type), or goerror.ErrNotFound.
func (s *DB) GetCredentialByLabel(
	ctx context.Context, realm, userID, label string, typ entity.CredentialType,
) (_ *entity.TotpCredential, err error) {
	ctx, span := s.startSpan(ctx, "GetCredentialByLabel")
	defer func() { s.endSpan(span, err) }()

	var cred entity.TotpCredential
	err = s.conn.QueryRow(ctx, queryGetCredentialByLabel, realm, userID, label, typ.String()).Scan(
		&cred.ID,
		&cred.Realm,
		&cred.UserID,
		&cred.UserLabel,
		&cred.Type,
		&cred.SecretData,
		&cred.Algorithm,
		&cred.Digits,
		&cred.Period,
		&cred.CreatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &cred, nil
}

// CreateCredential inserts a new credential row.
func (s *DB) CreateCredential(ctx context.Context, cred entity.TotpCredential) (err error) {
	ctx, span := s.startSpan(ctx, "CreateCredential")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateCredential,
		cred.ID,
		cred.Realm,
		cred.UserID,
		cred.UserLabel,
		cred.Type.String(),
		cred.SecretData,
		cred.Algorithm,
		cred.Digits,
		cred.Period,
		cred.CreatedAt,
	)

	return s.mapError(err)
}

// ReplaceCredential atomically swaps the credential identified by oldID for
// the new one. The delete and insert commit together so a concurrent reader
// never observes zero or two credentials for the same label.
func (s *DB) ReplaceCredential(ctx context.Context, oldID string, cred entity.TotpCredential) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceCredential")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return s.mapError(err)
	}
	defer func() {
		if err != nil {
			//nolint:errcheck // rollback error is secondary
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, queryDeleteCredentialByID, oldID); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx, queryCreateCredential,
		cred.ID,
		cred.Realm,
		cred.UserID,
		cred.UserLabel,
		cred.Type.String(),
		cred.SecretData,
		cred.Algorithm,
		cred.Digits,
		cred.Period,
		cred.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}

	err = s.mapError(tx.Commit(ctx))

	return err
}

// DeleteCredential removes a credential by id.
func (s *DB) DeleteCredential(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteCredential")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryDeleteCredentialByID, id)

	return s.mapError(err)
}
