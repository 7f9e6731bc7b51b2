package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"
)

// OTPRepository holds pending one-time codes. Storing a code for a key replaces
// any earlier code for the same key.
type OTPRepository interface {
	Store(ctx context.Context, otp *domain.OTP) error
	GetByKey(ctx context.Context, key string) (*domain.OTP, error)
	// Consume removes and returns the code for key when it matches code and has
	// not expired. Of several concurrent callers with the same code, one wins.
	Consume(ctx context.Context, key, code string) (*domain.OTP, error)
}

type otpRepository struct {
	db *sql.DB
}

func NewOTPRepository(db *sql.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Store(ctx context.Context, otp *domain.OTP) error {
	if err := otp.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM otps WHERE key = $1", otp.Key); err != nil {
		return fmt.Errorf("failed to clear previous OTP: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO otps (key, email, otp, expires_at) VALUES ($1, $2, $3, $4)",
		otp.Key, otp.Email, otp.OTP, otp.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	return tx.Commit()
}

func (r *otpRepository) GetByKey(ctx context.Context, key string) (*domain.OTP, error) {
	otp := &domain.OTP{}

	err := r.db.QueryRowContext(ctx,
		"SELECT key, email, otp, expires_at FROM otps WHERE key = $1 ORDER BY expires_at DESC LIMIT 1",
		key,
	).Scan(&otp.Key, &otp.Email, &otp.OTP, &otp.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, fmt.Errorf("failed to get OTP: %w", err)
	}

	return otp, nil
}

func (r *otpRepository) Consume(ctx context.Context, key, code string) (*domain.OTP, error) {
	otp := &domain.OTP{}

	err := r.db.QueryRowContext(ctx,
		`DELETE FROM otps WHERE key = $1 AND otp = $2 AND expires_at > NOW()
		RETURNING key, email, otp, expires_at`,
		key, code,
	).Scan(&otp.Key, &otp.Email, &otp.OTP, &otp.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, fmt.Errorf("failed to consume OTP: %w", err)
	}

	return otp, nil
}
