package inbound

import (
	"github.com/sidiqpratomo/totpadmin/internal/pkg/router"
	"github.com/sidiqpratomo/totpadmin/internal/totp/usecase"
)

// HTTPEndpoint exposes HTTP handlers for TOTP credential administration.
type HTTPEndpoint struct {
	uc uc
}

// Generate returns a fresh secret and QR code for the target user.
func (h *HTTPEndpoint) Generate(r *router.Request) (any, error) {
	out, err := h.uc.Generate(r.Context(), usecase.GenerateInput{
		Realm:  r.GetParam("realm"),
		UserID: r.GetParam("userId"),
	})
	if err != nil {
		return nil, err
	}

	return GenerateResponse{
		EncodedSecret: out.EncodedSecret,
		QRCode:        out.QRCode,
	}, nil
}

// Register binds a verified secret as a stored credential.
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	_, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Realm:         r.GetParam("realm"),
		UserID:        r.GetParam("userId"),
		DeviceName:    req.DeviceName,
		EncodedSecret: req.EncodedSecret,
		InitialCode:   req.InitialCode,
		Overwrite:     req.Overwrite,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{Message: "OTP credential registered"}, nil
}

// Verify validates a code against the stored credential.
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Realm:      r.GetParam("realm"),
		UserID:     r.GetParam("userId"),
		DeviceName: req.DeviceName,
		Code:       req.Code,
	})
	if err != nil {
		return nil, err
	}

	return MessageResponse{Message: "OTP code is valid"}, nil
}
