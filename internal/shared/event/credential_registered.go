package event

// TOTPCredentialRegisteredDestination is the broker subject for audit
// events emitted after a credential registration commits.
const TOTPCredentialRegisteredDestination = "totp.credential.registered"

// CredentialRegisteredMessage is the wire payload for a registration event.
type CredentialRegisteredMessage struct {
	Realm        string `json:"realm"`
	UserID       string `json:"userId"`
	CredentialID string `json:"credentialId"`
	DeviceName   string `json:"deviceName"`
	Overwritten  bool   `json:"overwritten"`
}
