package inbound

type OTPSendRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type OTPSendResponse struct {
	Success   bool  `json:"success"`
	ExpiresIn int64 `json:"expires_in"`
}

type OTPVerifyRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"otp"`
}

type SessionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type OTPVerifyResponse struct {
	Success           bool            `json:"success"`
	Session           SessionResponse `json:"session"`
	RemainingAttempts int16           `json:"remaining_attempts"`
}
