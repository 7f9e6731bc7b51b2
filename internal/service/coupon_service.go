package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"subscriber-journey/pkg/render"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const couponOTPPrefix = "coupon:"

type CouponService struct {
	couponRepo     repository.CouponRepository
	subscriberRepo repository.SubscriberRepository
	otpRepo        repository.OTPRepository
	mailer         *Mailer
	codes          CodeGenerator
	ttl            time.Duration
}

func NewCouponService(
	couponRepo repository.CouponRepository,
	subscriberRepo repository.SubscriberRepository,
	otpRepo repository.OTPRepository,
	mailer *Mailer,
	codes CodeGenerator,
	ttl time.Duration,
) *CouponService {
	return &CouponService{
		couponRepo:     couponRepo,
		subscriberRepo: subscriberRepo,
		otpRepo:        otpRepo,
		mailer:         mailer,
		codes:          codes,
		ttl:            ttl,
	}
}

// RequestCoupon emails a code that unlocks the active coupon. Each request
// replaces the user's previous code.
func (s *CouponService) RequestCoupon(ctx context.Context, userID, email string) error {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}

	code, err := s.codes.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	otp := &domain.OTP{
		Key:       couponOTPPrefix + userID,
		Email:     email,
		OTP:       code,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.otpRepo.Store(ctx, otp); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	log.Debug().Str("email", email).Msg("Coupon OTP issued")

	return s.mailer.SendCode(ctx, email, code, PurposeCoupon, subjectCouponRequest, couponRequestTemplate, render.Bindings{
		"code":  code,
		"hours": int(s.ttl.Hours()),
	})
}

// VerifyCouponRequest consumes the code and emails the active coupon. The code
// is taken atomically before any mail goes out, so concurrent requests with one
// code send at most one coupon. It is put back when no coupon can be delivered.
func (s *CouponService) VerifyCouponRequest(ctx context.Context, userID, code string) (*domain.Coupon, error) {
	if err := domain.ValidateOTPFormat(code); err != nil {
		return nil, err
	}

	key := couponOTPPrefix + userID
	stored, err := s.otpRepo.Consume(ctx, key, code)
	if err != nil {
		if errors.Is(err, domain.ErrOTPNotFound) || errors.Is(err, domain.ErrInvalidOTP) || errors.Is(err, domain.ErrOTPExpired) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, fmt.Errorf("failed to consume OTP: %w", err)
	}

	coupon, err := s.couponRepo.GetActive(ctx)
	if err != nil {
		s.restoreOTP(ctx, stored)
		if errors.Is(err, domain.ErrNoActiveCoupon) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get active coupon: %w", err)
	}

	recipient := stored.Email
	if sub, err := s.subscriberRepo.GetByUserID(ctx, userID); err == nil {
		recipient = sub.Email
	}

	err = s.mailer.Send(ctx, recipient, subjectCouponCode, couponCodeTemplate, render.Bindings{
		"code":        coupon.Code,
		"description": coupon.Description,
	})
	if err != nil {
		s.restoreOTP(ctx, stored)
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("coupon", coupon.Code).Msg("Coupon issued")
	return coupon, nil
}

// restoreOTP puts a consumed code back so the user can retry after a failed
// delivery. A newer code stored in the meantime is overwritten.
func (s *CouponService) restoreOTP(ctx context.Context, otp *domain.OTP) {
	if otp.IsExpired() {
		return
	}
	if err := s.otpRepo.Store(context.WithoutCancel(ctx), otp); err != nil {
		log.Warn().Err(err).Str("key", otp.Key).Msg("Failed to restore OTP")
	}
}

func (s *CouponService) ListCoupons(ctx context.Context) ([]*domain.Coupon, error) {
	coupons, err := s.couponRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get coupons: %w", err)
	}
	return coupons, nil
}

func (s *CouponService) CreateCoupon(ctx context.Context, code, description string, active bool) (*domain.Coupon, error) {
	coupon := &domain.Coupon{
		ID:          uuid.NewString(),
		Code:        strings.ToUpper(strings.TrimSpace(code)),
		Description: strings.TrimSpace(description),
		IsActive:    active,
	}
	if err := coupon.Validate(); err != nil {
		return nil, err
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		if errors.Is(err, domain.ErrCouponAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return coupon, nil
}

func (s *CouponService) SetCouponActive(ctx context.Context, id string, active bool) error {
	if err := s.couponRepo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, domain.ErrCouponNotFound) {
			return err
		}
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	return nil
}
