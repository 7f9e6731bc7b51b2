package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"subscriber-journey/pkg/email"
	"subscriber-journey/pkg/render"

	"github.com/rs/zerolog/log"
)

const maskedPassword = "********"

type SettingsService struct {
	repo   repository.SettingsRepository
	mailer *Mailer
}

func NewSettingsService(repo repository.SettingsRepository, mailer *Mailer) *SettingsService {
	return &SettingsService{repo: repo, mailer: mailer}
}

// GetSMTPSettings returns the stored settings with the password masked.
func (s *SettingsService) GetSMTPSettings(ctx context.Context) (*domain.SmtpSettings, error) {
	settings, err := s.repo.GetSMTPSettings(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSettingsNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get SMTP settings: %w", err)
	}

	if settings.Password != "" {
		settings.Password = maskedPassword
	}
	return settings, nil
}

// UpdateSMTPSettings saves the settings and sends a test email to the username.
// An empty or masked password keeps the stored one. The settings stay saved when
// the test email fails.
func (s *SettingsService) UpdateSMTPSettings(ctx context.Context, in domain.SmtpSettings) error {
	in.Host = strings.TrimSpace(in.Host)
	in.Username = strings.TrimSpace(in.Username)
	in.Encryption = domain.Encryption(strings.ToLower(string(in.Encryption)))

	if in.Password == "" || in.Password == maskedPassword {
		current, err := s.repo.GetSMTPSettings(ctx)
		switch {
		case err == nil:
			in.Password = current.Password
		case errors.Is(err, domain.ErrSettingsNotFound):
			in.Password = ""
		default:
			return fmt.Errorf("failed to get SMTP settings: %w", err)
		}
	}

	if err := in.Validate(); err != nil {
		return err
	}

	if err := s.repo.SaveSMTPSettings(ctx, &in); err != nil {
		return fmt.Errorf("failed to save SMTP settings: %w", err)
	}

	log.Info().Str("host", in.Host).Int("port", in.Port).Str("encryption", string(in.Encryption)).Msg("SMTP settings updated")

	return s.mailer.Send(ctx, in.Username, subjectSMTPSettingsTest, smtpTestTemplate, render.Bindings{
		"host":       in.Host,
		"port":       in.Port,
		"encryption": string(in.Encryption),
		"username":   in.Username,
	})
}

// SMTPConfigSource reads the stored SMTP settings at send time, so edits apply
// to the next email without a restart.
type SMTPConfigSource struct {
	repo     repository.SettingsRepository
	fromName string
}

func NewSMTPConfigSource(repo repository.SettingsRepository, fromName string) *SMTPConfigSource {
	return &SMTPConfigSource{repo: repo, fromName: fromName}
}

func (c *SMTPConfigSource) SMTPConfig(ctx context.Context) (email.SMTPConfig, error) {
	settings, err := c.repo.GetSMTPSettings(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSettingsNotFound) {
			return email.SMTPConfig{FromName: c.fromName}, nil
		}
		return email.SMTPConfig{}, err
	}

	return email.SMTPConfig{
		Host:       settings.Host,
		Port:       settings.Port,
		Username:   settings.Username,
		Password:   settings.Password,
		Encryption: string(settings.Encryption),
		FromName:   c.fromName,
	}, nil
}
