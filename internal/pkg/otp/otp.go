package otp

import (
	"bytes"
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"image/png"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// SecretLength is the size in bytes of a generated TOTP seed, per the
// RFC 4226/6238 recommendation for SHA-1 based tokens.
const SecretLength = 20

// base32Codec encodes secrets the way authenticator apps expect: standard
// alphabet, uppercase, no padding.
var base32Codec = base32.StdEncoding.WithPadding(base32.NoPadding)

// Policy describes the TOTP parameters a credential is bound to.
type Policy struct {
	// Algorithm is the HMAC hash name: SHA1, SHA256 or SHA512.
	Algorithm string
	// Digits is the code length, 6 or 8.
	Digits uint
	// Period is the time step in seconds.
	Period uint
}

func (p Policy) algorithm() otp.Algorithm {
	switch strings.ToUpper(p.Algorithm) {
	case "SHA256":
		return otp.AlgorithmSHA256
	case "SHA512":
		return otp.AlgorithmSHA512
	default:
		return otp.AlgorithmSHA1
	}
}

func (p Policy) digits() otp.Digits {
	if p.Digits == 8 {
		return otp.DigitsEight
	}

	return otp.DigitsSix
}

func (p Policy) period() uint {
	if p.Period == 0 {
		return 30
	}

	return p.Period
}

// Enrollment carries everything a client needs to provision an
// authenticator app with a fresh seed.
type Enrollment struct {
	// Secret is the Base32-encoded seed.
	Secret string
	// URI is the otpauth:// provisioning URI.
	URI string
	// QRCode is a base64-encoded PNG rendering of the URI.
	QRCode string
}

// OTP defines the contract for TOTP operations.
type OTP interface {
	// GenerateSecret creates a fresh random seed of SecretLength bytes.
	GenerateSecret() ([]byte, error)
	// Enroll builds the provisioning material for a secret.
	Enroll(issuer, accountName string, secret []byte, policy Policy) (Enrollment, error)
	// Validate checks a code against a secret at the given time, accepting
	// codes up to skew time steps away.
	Validate(code string, secret []byte, at time.Time, policy Policy, skew uint) bool
	// GenerateCode creates the TOTP code for a secret at the given time.
	GenerateCode(secret []byte, at time.Time, policy Policy) (string, error)
}

// TOTP implements OTP using the Time-based One-Time Password algorithm.
type TOTP struct{}

// NewTOTP constructs a TOTP instance.
func NewTOTP() *TOTP {
	return &TOTP{}
}

// GenerateSecret creates a fresh random seed of SecretLength bytes.
func (o *TOTP) GenerateSecret() ([]byte, error) {
	secret := make([]byte, SecretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}

	return secret, nil
}

// Enroll builds the provisioning material for a secret.
func (o *TOTP) Enroll(issuer, accountName string, secret []byte, policy Policy) (Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Secret:      secret,
		Period:      policy.period(),
		Digits:      policy.digits(),
		Algorithm:   policy.algorithm(),
	})
	if err != nil {
		return Enrollment{}, err
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return Enrollment{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Enrollment{}, err
	}

	return Enrollment{
		Secret: EncodeSecret(secret),
		URI:    key.URL(),
		QRCode: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Validate checks a code against a secret at the given time. A skew of 0
// accepts only the current time step.
func (o *TOTP) Validate(code string, secret []byte, at time.Time, policy Policy, skew uint) bool {
	rv, err := totp.ValidateCustom(code, EncodeSecret(secret), at, totp.ValidateOpts{
		Period:    policy.period(),
		Skew:      skew,
		Digits:    policy.digits(),
		Algorithm: policy.algorithm(),
	})

	return rv && err == nil
}

// GenerateCode creates the TOTP code for a secret at the given time.
func (o *TOTP) GenerateCode(secret []byte, at time.Time, policy Policy) (string, error) {
	return totp.GenerateCodeCustom(EncodeSecret(secret), at, totp.ValidateOpts{
		Period:    policy.period(),
		Skew:      0,
		Digits:    policy.digits(),
		Algorithm: policy.algorithm(),
	})
}

// EncodeSecret encodes a raw seed to the Base32 form carried on the wire.
func EncodeSecret(secret []byte) string {
	return base32Codec.EncodeToString(secret)
}

// DecodeSecret decodes a Base32 seed, tolerating lowercase input and
// trailing padding.
func DecodeSecret(encoded string) ([]byte, error) {
	cleaned := strings.TrimRight(strings.ToUpper(strings.TrimSpace(encoded)), "=")

	return base32Codec.DecodeString(cleaned)
}
