package auth

import (
	"fmt"

	"github.com/gupshup-api/internal/domain"
)

func registrationEmail(code string) (subject, body string) {
	return "Welcome! Please Verify Your Email", fmt.Sprintf(`
<h1>Welcome to GupShup!</h1>
<p>Thank you for registering. Please verify your email with the following OTP:</p>
<h2>%s</h2>
<p>This OTP will expire in 30 minutes.</p>`, code)
}

func deviceEmail(code string) (subject, body string) {
	return "Device Verification Required", fmt.Sprintf(`
<h1>Device Verification</h1>
<p>We noticed a login attempt from a new device. For your security, please verify this device with the following OTP:</p>
<h2>%s</h2>
<p>This OTP will expire in 15 minutes.</p>
<p>If you did not attempt to login, please change your password immediately.</p>`, code)
}

func resendEmail(code string, purpose domain.OTPPurpose) (subject, body string) {
	var heading string
	switch purpose {
	case domain.PurposeVerifyEmail:
		heading = "Email Verification"
	case domain.PurposeVerifyDevice:
		heading = "Device Verification"
	case domain.PurposeForgotPassword, domain.PurposeResetPassword:
		heading = "Password Reset"
	}
	return "Your New Verification OTP", fmt.Sprintf(`
<h1>%s</h1>
<p>As requested, here's your new verification OTP:</p>
<h2>%s</h2>
<p>This OTP will expire in 30 minutes.</p>`, heading, code)
}
