package domain

import (
	"crypto/subtle"
	"slices"
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Allowed gender values.
const (
	GenderMale        = "male"
	GenderFemale      = "female"
	GenderOther       = "other"
	GenderUnspecified = "prefer not to say"
)

type User struct {
	UserID            string          `json:"id" dynamodbav:"user_id"`
	Username          string          `json:"username" dynamodbav:"username"`
	UsernameLower     string          `json:"-" dynamodbav:"username_lower"`
	Email             string          `json:"email" dynamodbav:"email"`
	PasswordHash      string          `json:"-" dynamodbav:"password_hash"`
	FullName          string          `json:"fullName" dynamodbav:"full_name"`
	Bio               string          `json:"bio" dynamodbav:"bio"`
	ProfilePictureURL string          `json:"profilePictureUrl,omitempty" dynamodbav:"profile_picture_url,omitempty"`
	ProfilePictureID  string          `json:"-" dynamodbav:"profile_picture_id,omitempty"`
	PhoneNumber       string          `json:"phoneNumber,omitempty" dynamodbav:"phone_number,omitempty"`
	Gender            string          `json:"gender,omitempty" dynamodbav:"gender,omitempty"`
	IsVerified        bool            `json:"isVerified" dynamodbav:"is_verified"`
	Followers         []string        `json:"followers" dynamodbav:"followers,stringset,omitempty"`
	Following         []string        `json:"following" dynamodbav:"following,stringset,omitempty"`
	Posts             []string        `json:"posts" dynamodbav:"posts,stringset,omitempty"`
	SavedPosts        []string        `json:"savedPosts" dynamodbav:"saved_posts,stringset,omitempty"`
	LikedPosts        []string        `json:"likedPosts" dynamodbav:"liked_posts,stringset,omitempty"`
	OTP               string          `json:"-" dynamodbav:"otp,omitempty"`
	OTPExpires        int64           `json:"-" dynamodbav:"otp_expires,omitempty"` // Unix seconds
	OTPPurpose        OTPPurpose      `json:"-" dynamodbav:"otp_purpose,omitempty"`
	Role              string          `json:"role" dynamodbav:"role"`
	TrustedDevices    []TrustedDevice `json:"-" dynamodbav:"trusted_devices"`
	CreatedAt         time.Time       `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" dynamodbav:"updated_at"`
}

// HasLiveOTP reports whether an OTP is pending and not yet expired.
func (u *User) HasLiveOTP(now time.Time) bool {
	return u.OTP != "" && u.OTPExpires > now.Unix()
}

// CheckOTP reports whether code matches the pending OTP and it has not expired.
func (u *User) CheckOTP(code string, now time.Time) bool {
	if !u.HasLiveOTP(now) || code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(u.OTP), []byte(code)) == 1
}

// IsDeviceTrusted reports whether deviceID appears in the trust list.
func (u *User) IsDeviceTrusted(deviceID string) bool {
	return u.deviceIndex(deviceID) >= 0
}

// TrustDevice adds the device to the trust list, or refreshes the existing
// entry's metadata and lastUsed when it is already there.
func (u *User) TrustDevice(info DeviceInfo, now time.Time) {
	if i := u.deviceIndex(info.DeviceID); i >= 0 {
		d := &u.TrustedDevices[i]
		if info.UserAgent != "" {
			d.UserAgent = info.UserAgent
		}
		if info.Platform != "" {
			d.Platform = info.Platform
		}
		d.LastUsed = now
		d.IsActive = true
		return
	}
	u.TrustedDevices = append(u.TrustedDevices, TrustedDevice{
		DeviceID:  info.DeviceID,
		UserAgent: info.UserAgent,
		Platform:  info.Platform,
		LastUsed:  now,
		IsActive:  true,
	})
}

func (u *User) deviceIndex(deviceID string) int {
	if deviceID == "" {
		return -1
	}
	for i := range u.TrustedDevices {
		if u.TrustedDevices[i].DeviceID == deviceID {
			return i
		}
	}
	return -1
}

// Follows reports whether u follows userID.
func (u *User) Follows(userID string) bool { return slices.Contains(u.Following, userID) }

// NormalizeEmail lower-cases and trims an email address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CreateUserRequest struct {
	FullName        string `json:"fullName" validate:"required,max=100"`
	Username        string `json:"username" validate:"required,min=3,max=30"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type UpdateUserRequest struct {
	FullName    *string `json:"fullName" validate:"omitempty,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=150"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,mobile"`
	Gender      *string `json:"gender" validate:"omitempty,gender"`
}
