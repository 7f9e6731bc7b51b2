package domain

import (
	"crypto/subtle"
	"time"
)

const OTPLength = 6

type OTP struct {
	Key       string    `json:"key"`
	Email     string    `json:"email"`
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (o *OTP) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

func (o *OTP) IsValid(otpToVerify string) bool {
	return CodesMatch(o.OTP, otpToVerify) && !o.IsExpired()
}

func (o *OTP) Validate() error {
	if o.Key == "" {
		return ErrInvalidUserID
	}
	if o.OTP == "" {
		return ErrInvalidOTP
	}
	if o.ExpiresAt.IsZero() {
		return ErrInvalidOTPExpiry
	}
	return nil
}

// CodesMatch compares a stored code with user input. An empty stored code never
// matches, so a consumed code cannot be replayed as "".
func CodesMatch(stored, given string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// ValidateOTPFormat checks that input is exactly six ASCII digits.
func ValidateOTPFormat(code string) error {
	if len(code) != OTPLength {
		return ErrInvalidOTPFormat
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrInvalidOTPFormat
		}
	}
	return nil
}
