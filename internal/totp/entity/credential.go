package entity

import "time"

// User is a directory row. It is read-only to this module; user lifecycle
// is managed elsewhere.
type User struct {
	ID                     string
	Realm                  string
	Username               string
	Email                  string
	ServiceAccountClientID string
}

// IsServiceAccount reports whether the user is the machine identity linked
// to a client rather than a real person.
func (u User) IsServiceAccount() bool {
	return u.ServiceAccountClientID != ""
}

// TotpCredential is a stored TOTP credential. SecretData holds the
// encrypted seed, never the raw bytes.
type TotpCredential struct {
	ID         string
	Realm      string
	UserID     string
	UserLabel  string
	Type       CredentialType
	SecretData []byte
	Algorithm  string
	Digits     uint
	Period     uint
	CreatedAt  time.Time
}
