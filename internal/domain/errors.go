package domain

import "errors"

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidPassword    = errors.New("password must be at least 6 characters")
	ErrUserNotFound       = errors.New("User not found")
	ErrUserAlreadyExists  = errors.New("User with this email already exists")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrInvalidResetCode   = errors.New("Invalid reset code")
	ErrInvalidUserID      = errors.New("invalid user ID")
	ErrInvalidRole        = errors.New("role must be user or admin")

	ErrSubscriberNotFound      = errors.New("subscriber not found")
	ErrAlreadySubscribed       = errors.New("You are already subscribed")
	ErrNotSubscribed           = errors.New("You are not subscribed")
	ErrInvalidVerificationCode = errors.New("Invalid verification code")
	ErrSubscriberAlreadyExists = errors.New("subscriber already exists")

	ErrListNotFound    = errors.New("List not found")
	ErrInvalidListName = errors.New("list name is required")

	ErrCampaignNotFound    = errors.New("Campaign not found")
	ErrInvalidCampaignName = errors.New("campaign name is required")
	ErrInvalidSubject      = errors.New("subject is required")
	ErrInvalidContent      = errors.New("content is required")
	ErrInvalidTemplate     = errors.New("content is not a valid template")
	ErrInvalidFeedURL      = errors.New("invalid feed URL")
	ErrEmptyFeed           = errors.New("feed has no items")

	ErrCouponNotFound      = errors.New("coupon not found")
	ErrNoActiveCoupon      = errors.New("No active coupon available")
	ErrInvalidCouponCode   = errors.New("coupon code is required")
	ErrCouponAlreadyExists = errors.New("coupon code already exists")

	ErrInvalidSMTPHost       = errors.New("SMTP host is required")
	ErrInvalidSMTPPort       = errors.New("SMTP port must be between 1 and 65535")
	ErrInvalidSMTPUsername   = errors.New("SMTP username is required")
	ErrInvalidSMTPEncryption = errors.New("encryption must be one of ssl, tls or none")
	ErrSettingsNotFound      = errors.New("SMTP settings not found")

	ErrInvalidOTP       = errors.New("Invalid OTP")
	ErrInvalidOTPFormat = errors.New("Please enter a valid 6-digit OTP code")
	ErrInvalidOTPExpiry = errors.New("invalid OTP expiry time")
	ErrOTPExpired       = errors.New("OTP has expired")
	ErrOTPNotFound      = errors.New("OTP not found")

	ErrEmailDelivery = errors.New("Failed to send email")

	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
)
