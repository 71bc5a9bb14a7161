package inbound

import (
	"github.com/radityaferdi/otpgate/internal/auth/usecase"
	"github.com/radityaferdi/otpgate/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// OTPSend issues a one-time code for the submitted phone number and queues
// its delivery.
func (h *HTTPEndpoint) OTPSend(r *router.Request) (any, error) {
	var req OTPSendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OTPSend(r.Context(), usecase.OTPSendInput{
		PhoneNumber: req.PhoneNumber,
		ClientIP:    r.ClientIP(),
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return OTPSendResponse{
		Success:   true,
		ExpiresIn: resp.ExpiresInSeconds,
	}, nil
}

// OTPVerify checks the submitted code and returns a session on a match.
func (h *HTTPEndpoint) OTPVerify(r *router.Request) (any, error) {
	var req OTPVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OTPVerify(r.Context(), usecase.OTPVerifyInput{
		PhoneNumber: req.PhoneNumber,
		Code:        req.Code,
	})
	if err != nil {
		return nil, err
	}

	return OTPVerifyResponse{
		Success: true,
		Session: SessionResponse{
			AccessToken: resp.Session.AccessToken,
			TokenType:   resp.Session.TokenType,
			ExpiresIn:   resp.Session.ExpiresIn,
		},
		RemainingAttempts: resp.RemainingAttempts,
	}, nil
}
