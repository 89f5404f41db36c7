package domain

import "time"

// TrustedDevice is a client device that completed OTP verification.
// Trust never expires on its own.
type TrustedDevice struct {
	DeviceID  string    `json:"deviceId" dynamodbav:"device_id"`
	UserAgent string    `json:"userAgent" dynamodbav:"user_agent"`
	Platform  string    `json:"platform" dynamodbav:"platform"`
	LastUsed  time.Time `json:"lastUsed" dynamodbav:"last_used"`
	IsActive  bool      `json:"isActive" dynamodbav:"is_active"`
}

// DeviceInfo is what the client reports about itself on login and verification.
// DeviceID is client generated, e.g. "web-k3j9x2-1718000000000".
type DeviceInfo struct {
	DeviceID  string `json:"deviceId" validate:"required,max=200"`
	UserAgent string `json:"userAgent" validate:"required,max=512"`
	Platform  string `json:"platform" validate:"required,max=100"`
}

// Complete reports whether all three identifying fields are present.
func (d *DeviceInfo) Complete() bool {
	return d != nil && d.DeviceID != "" && d.UserAgent != "" && d.Platform != ""
}
