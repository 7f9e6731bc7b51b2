package service

import (
	"context"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"subscriber-journey/pkg/render"
	"subscriber-journey/pkg/security"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const minPasswordLength = 6

type AuthService struct {
	userRepo repository.UserRepository
	mailer   *Mailer
	codes    CodeGenerator
}

func NewAuthService(
	userRepo repository.UserRepository,
	mailer *Mailer,
	codes CodeGenerator,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		mailer:   mailer,
		codes:    codes,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	if len(password) < minPasswordLength {
		return nil, domain.ErrInvalidPassword
	}

	user := &domain.User{
		ID:    uuid.NewString(),
		Email: domain.NormalizeEmail(email),
		Name:  name,
		Role:  domain.RoleUser,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil {
		return nil, domain.ErrUserAlreadyExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !security.CheckPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	log.Info().Str("user_id", user.ID).Msg("User authenticated successfully")
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset stores a fresh reset code on the user and emails it. A
// later request replaces the earlier code.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	code, err := s.codes.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	user.ResetCode = code
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	log.Debug().Str("email", user.Email).Msg("Password reset code issued")

	return s.mailer.Send(ctx, user.Email, subjectPasswordReset, passwordResetTemplate, render.Bindings{
		"name": user.Name,
		"code": code,
	})
}

// ResetPassword sets a new password when code matches the stored reset code. The
// hash is written and the code cleared in one conditional update, so a code
// works once even under concurrent requests.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetCode
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !domain.CodesMatch(user.ResetCode, code) {
		return domain.ErrInvalidResetCode
	}
	if len(newPassword) < minPasswordLength {
		return domain.ErrInvalidPassword
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err = s.userRepo.ResetPassword(ctx, user.Email, code, hash)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidResetCode) {
			return err
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("Password reset")
	return nil
}
