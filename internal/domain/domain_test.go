package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("jane@example.com"))
	assert.ErrorIs(t, ValidateEmail(""), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("not-an-address"), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("Jane <jane@example.com>"), ErrInvalidEmail)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestUserValidate(t *testing.T) {
	u := &User{Email: "jane@example.com", Name: "Jane", Role: RoleUser}
	assert.NoError(t, u.Validate())

	u.Name = " "
	assert.ErrorIs(t, u.Validate(), ErrInvalidName)

	u.Name = "Jane"
	u.Role = "owner"
	assert.ErrorIs(t, u.Validate(), ErrInvalidRole)
}

func TestOTPValidity(t *testing.T) {
	otp := &OTP{Key: "coupon:1", OTP: "123456", ExpiresAt: time.Now().Add(time.Minute)}
	assert.NoError(t, otp.Validate())
	assert.True(t, otp.IsValid("123456"))
	assert.False(t, otp.IsValid("654321"))

	otp.ExpiresAt = time.Now().Add(-time.Second)
	assert.True(t, otp.IsExpired())
	assert.False(t, otp.IsValid("123456"))

	assert.ErrorIs(t, (&OTP{Key: "k", OTP: "1"}).Validate(), ErrInvalidOTPExpiry)
}

func TestCodesMatch(t *testing.T) {
	assert.True(t, CodesMatch("123456", "123456"))
	assert.False(t, CodesMatch("123456", "12345"))
	assert.False(t, CodesMatch("", ""))
}

func TestValidateOTPFormat(t *testing.T) {
	assert.NoError(t, ValidateOTPFormat("000123"))
	for _, bad := range []string{"", "12345", "1234567", "12a456", "１２３４５６"} {
		assert.ErrorIs(t, ValidateOTPFormat(bad), ErrInvalidOTPFormat, bad)
	}
}

func TestSmtpSettingsValidate(t *testing.T) {
	s := &SmtpSettings{Host: "smtp.example.com", Port: 465, Username: "alerts@example.com", Encryption: EncryptionSSL}
	assert.NoError(t, s.Validate())

	s.Port = 0
	assert.ErrorIs(t, s.Validate(), ErrInvalidSMTPPort)

	s.Port = 587
	s.Encryption = "starttls"
	assert.ErrorIs(t, s.Validate(), ErrInvalidSMTPEncryption)
}

func TestCampaignValidateAndUpdate(t *testing.T) {
	c := &Campaign{Name: "Launch", Subject: "Hello", Content: "Hi {{ name }}", ListIDs: []string{"l1"}}
	assert.NoError(t, c.Validate())

	c.CC = []string{"bad address"}
	assert.ErrorIs(t, c.Validate(), ErrInvalidEmail)

	subject := "Updated"
	lists := []string{"l2", "l3"}
	CampaignUpdate{Subject: &subject, ListIDs: &lists}.Apply(c)
	assert.Equal(t, "Updated", c.Subject)
	assert.Equal(t, []string{"l2", "l3"}, c.ListIDs)
	assert.Equal(t, "Launch", c.Name)
}

func TestListHas(t *testing.T) {
	l := &SubscriptionList{Name: "News", Subscribers: []string{"a", "b"}}
	assert.True(t, l.Has("a"))
	assert.False(t, l.Has("c"))
	assert.ErrorIs(t, (&SubscriptionList{}).Validate(), ErrInvalidListName)
}
