package db

import (
	"context"

	"github.com/sidiqpratomo/totpadmin/internal/totp/entity"
)

const queryGetUserByID = `
SELECT id, realm, username, email, COALESCE(service_account_client_id, '')
FROM users
WHERE realm = $1 AND id = $2`

func (s *DB) GetUserByID(ctx context.Context, realm, id string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	var user entity.User
	err = s.conn.QueryRow(ctx, queryGetUserByID, realm, id).Scan(
		&user.ID,
		&user.Realm,
		&user.Username,
		&user.Email,
		&user.ServiceAccountClientID,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &user, nil
}
