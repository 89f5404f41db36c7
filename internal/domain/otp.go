package domain

import "time"

// OTPPurpose tags what a one-time code proves. Every switch over it must
// handle all four values.
type OTPPurpose string

const (
	PurposeVerifyEmail    OTPPurpose = "verifyEmail"
	PurposeVerifyDevice   OTPPurpose = "verifyDevice"
	PurposeForgotPassword OTPPurpose = "forgotPassword"
	PurposeResetPassword  OTPPurpose = "resetPassword"
)

// OTP lifetimes.
const (
	RegistrationOTPTTL = 30 * time.Minute
	ResendOTPTTL       = 30 * time.Minute
	DeviceOTPTTL       = 15 * time.Minute
)

// ParseOTPPurpose maps the wire tag onto the enum.
func ParseOTPPurpose(s string) (OTPPurpose, error) {
	switch p := OTPPurpose(s); p {
	case PurposeVerifyEmail, PurposeVerifyDevice, PurposeForgotPassword, PurposeResetPassword:
		return p, nil
	case "":
		return "", BadRequest("OTP purpose is required")
	default:
		return "", BadRequest("Invalid OTP purpose")
	}
}

func (p OTPPurpose) String() string { return string(p) }
