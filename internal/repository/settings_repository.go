package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"
)

// SettingsRepository stores the single SMTP settings record.
type SettingsRepository interface {
	GetSMTPSettings(ctx context.Context) (*domain.SmtpSettings, error)
	SaveSMTPSettings(ctx context.Context, settings *domain.SmtpSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetSMTPSettings(ctx context.Context) (*domain.SmtpSettings, error) {
	s := &domain.SmtpSettings{}
	var encryption string

	err := r.db.QueryRowContext(ctx,
		"SELECT host, port, username, password, encryption FROM smtp_settings WHERE id = 1",
	).Scan(&s.Host, &s.Port, &s.Username, &s.Password, &encryption)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get SMTP settings: %w", err)
	}

	s.Encryption = domain.Encryption(encryption)
	return s, nil
}

func (r *settingsRepository) SaveSMTPSettings(ctx context.Context, settings *domain.SmtpSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO smtp_settings (id, host, port, username, password, encryption, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET host = EXCLUDED.host, port = EXCLUDED.port,
			username = EXCLUDED.username, password = EXCLUDED.password,
			encryption = EXCLUDED.encryption, updated_at = NOW()`,
		settings.Host, settings.Port, settings.Username, settings.Password, string(settings.Encryption),
	)
	if err != nil {
		return fmt.Errorf("failed to save SMTP settings: %w", err)
	}
	return nil
}
