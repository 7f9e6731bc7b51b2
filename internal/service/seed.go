package service

import (
	"context"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"subscriber-journey/pkg/security"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	SMTP          domain.SmtpSettings
}

// Seed fills an empty store with the admin account, the welcome coupon and the
// SMTP settings. Collections that already hold data are left alone.
func Seed(
	ctx context.Context,
	users repository.UserRepository,
	coupons repository.CouponRepository,
	settings repository.SettingsRepository,
	cfg SeedConfig,
) error {
	userCount, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if userCount == 0 {
		hash, err := security.HashPassword(cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		admin := &domain.User{
			ID:           uuid.NewString(),
			Email:        domain.NormalizeEmail(cfg.AdminEmail),
			Name:         "Admin",
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
		}
		if err := users.Create(ctx, admin); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		log.Info().Str("email", admin.Email).Msg("Seeded admin user")
	}

	couponCount, err := coupons.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count coupons: %w", err)
	}
	if couponCount == 0 {
		coupon := &domain.Coupon{
			ID:          uuid.NewString(),
			Code:        domain.DefaultCouponCode,
			Description: domain.DefaultCouponDescription,
			IsActive:    true,
		}
		if err := coupons.Create(ctx, coupon); err != nil && !errors.Is(err, domain.ErrCouponAlreadyExists) {
			return fmt.Errorf("failed to create default coupon: %w", err)
		}
		log.Info().Str("code", coupon.Code).Msg("Seeded default coupon")
	}

	if _, err := settings.GetSMTPSettings(ctx); errors.Is(err, domain.ErrSettingsNotFound) {
		smtp := cfg.SMTP
		if err := smtp.Validate(); err != nil {
			log.Warn().Err(err).Msg("SMTP settings from environment are invalid, not seeding")
			return nil
		}
		if err := settings.SaveSMTPSettings(ctx, &smtp); err != nil {
			return fmt.Errorf("failed to seed SMTP settings: %w", err)
		}
		log.Info().Str("host", smtp.Host).Msg("Seeded SMTP settings")
	} else if err != nil {
		return fmt.Errorf("failed to get SMTP settings: %w", err)
	}

	return nil
}
