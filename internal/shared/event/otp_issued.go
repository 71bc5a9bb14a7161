package event

const OTPIssuedDestination string = "auth_otp_issued"
const OTPIssuedDestinationConsumerNotifier string = "auth_otp_issued_notifier"

type OTPIssuedMessage struct {
	OTPID            int64  `json:"otp_id"`
	PhoneNumber      string `json:"phone_number"`
	Code             string `json:"code"`
	ExpiresInMinutes int64  `json:"expires_in_minutes"`
}
