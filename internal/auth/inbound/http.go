package inbound

import (
	"context"

	"github.com/radityaferdi/otpgate/internal/auth/usecase"
	"github.com/radityaferdi/otpgate/internal/pkg/router"
)

type uc interface {
	OTPSend(ctx context.Context, in usecase.OTPSendInput) (*usecase.OTPSendOutput, error)
	OTPVerify(ctx context.Context, in usecase.OTPVerifyInput) (*usecase.OTPVerifyOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/auth/otp/send", end.OTPSend)
	r.POST("/api/v1/auth/otp/verify", end.OTPVerify)
}
