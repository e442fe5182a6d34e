package inbound

import "net/http"

// GenerateResponse carries the enrollment material for a fresh secret.
type GenerateResponse struct {
	EncodedSecret string `json:"encodedSecret"`
	QRCode        string `json:"qrCode"`
}

// VerifyRequest is the body for code verification.
type VerifyRequest struct {
	DeviceName string `json:"deviceName"`
	Code       string `json:"code"`
}

// RegisterRequest is the body for credential registration.
type RegisterRequest struct {
	DeviceName    string `json:"deviceName"`
	EncodedSecret string `json:"encodedSecret"`
	InitialCode   string `json:"initialCode"`
	Overwrite     bool   `json:"overwrite"`
}

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterResponse confirms a registration with 201 Created.
type RegisterResponse struct {
	Message string `json:"message"`
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}
