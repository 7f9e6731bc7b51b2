package service

import (
	"context"
	"subscriber-journey/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_UpdateSendsTestEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSettingsService(env.store.Settings(), env.mailer)
	ctx := context.Background()

	err := svc.UpdateSMTPSettings(ctx, domain.SmtpSettings{
		Host: " smtp.example.com ", Port: 587, Username: "alerts@example.com", Password: "pw", Encryption: "TLS",
	})
	require.NoError(t, err)

	msg := env.sender.last(t)
	assert.Equal(t, "alerts@example.com", msg.To)
	assert.Equal(t, subjectSMTPSettingsTest, msg.Subject)
	assert.Contains(t, msg.HTML, "Server: smtp.example.com")
	assert.Contains(t, msg.HTML, "Port: 587")
	assert.Contains(t, msg.HTML, "Encryption: tls")

	got, err := svc.GetSMTPSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, maskedPassword, got.Password)
	assert.Equal(t, domain.EncryptionTLS, got.Encryption)
}

func TestSettingsService_BlankPasswordKeepsStored(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSettingsService(env.store.Settings(), env.mailer)
	source := NewSMTPConfigSource(env.store.Settings(), "Subscriber Journey")
	ctx := context.Background()

	require.NoError(t, svc.UpdateSMTPSettings(ctx, domain.SmtpSettings{
		Host: "smtp.example.com", Port: 465, Username: "alerts@example.com", Password: "secret", Encryption: domain.EncryptionSSL,
	}))
	require.NoError(t, svc.UpdateSMTPSettings(ctx, domain.SmtpSettings{
		Host: "smtp2.example.com", Port: 465, Username: "alerts@example.com", Password: maskedPassword, Encryption: domain.EncryptionSSL,
	}))

	cfg, err := source.SMTPConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "smtp2.example.com", cfg.Host)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "ssl", cfg.Encryption)
	assert.Equal(t, "Subscriber Journey", cfg.FromName)
}

func TestSettingsService_Validation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSettingsService(env.store.Settings(), env.mailer)
	ctx := context.Background()

	err := svc.UpdateSMTPSettings(ctx, domain.SmtpSettings{Host: "smtp.example.com", Port: 0, Username: "a@example.com", Encryption: domain.EncryptionSSL})
	assert.ErrorIs(t, err, domain.ErrInvalidSMTPPort)

	err = svc.UpdateSMTPSettings(ctx, domain.SmtpSettings{Host: "smtp.example.com", Port: 25, Username: "a@example.com", Encryption: "starttls"})
	assert.ErrorIs(t, err, domain.ErrInvalidSMTPEncryption)

	_, err = svc.GetSMTPSettings(ctx)
	assert.ErrorIs(t, err, domain.ErrSettingsNotFound)
	assert.Equal(t, 0, env.sender.count())
}

func TestSMTPConfigSource_Unset(t *testing.T) {
	env := newTestEnv(t)
	cfg, err := NewSMTPConfigSource(env.store.Settings(), "Sender").SMTPConfig(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cfg.Host)
	assert.Equal(t, "Sender", cfg.FromName)
}

func TestSeed_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cfg := SeedConfig{
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin123",
		SMTP:          domain.SmtpSettings{Host: "smtp.example.com", Port: 465, Username: "alerts@example.com", Encryption: domain.EncryptionSSL},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, Seed(ctx, env.store.Users(), env.store.Coupons(), env.store.Settings(), cfg))
	}

	n, err := env.store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	auth := NewAuthService(env.store.Users(), env.mailer, env.codes)
	admin, err := auth.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	coupon, err := env.store.Coupons().GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCouponCode, coupon.Code)

	settings, err := env.store.Settings().GetSMTPSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", settings.Host)
}
