package entity

// CredentialType identifies the kind of stored credential.
type CredentialType string

const (
	// CredentialTypeOTP is a time-based one-time password credential.
	CredentialTypeOTP CredentialType = "otp"
)

// String returns the string representation of the credential type.
func (c CredentialType) String() string {
	return string(c)
}
