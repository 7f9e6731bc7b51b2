package memory

import (
	"context"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
)

var (
	_ repository.SettingsRepository = (*SettingsRepository)(nil)
	_ repository.OTPRepository      = (*OTPRepository)(nil)
)

type SettingsRepository struct {
	store *Store
}

func (r *SettingsRepository) GetSMTPSettings(_ context.Context) (*domain.SmtpSettings, error) {
	var found *domain.SmtpSettings
	err := r.store.view(func(d *snapshot) error {
		if d.SmtpSettings == nil {
			return domain.ErrSettingsNotFound
		}
		s := *d.SmtpSettings
		found = &s
		return nil
	})
	return found, err
}

func (r *SettingsRepository) SaveSMTPSettings(_ context.Context, settings *domain.SmtpSettings) error {
	return r.store.mutate(func(d *snapshot) error {
		s := *settings
		d.SmtpSettings = &s
		return nil
	})
}

type OTPRepository struct {
	store *Store
}

func (r *OTPRepository) Store(_ context.Context, otp *domain.OTP) error {
	if err := otp.Validate(); err != nil {
		return err
	}
	return r.store.mutate(func(d *snapshot) error {
		d.OTPs = deleteOTP(d.OTPs, otp.Key)
		d.OTPs = append(d.OTPs, *otp)
		return nil
	})
}

func (r *OTPRepository) GetByKey(_ context.Context, key string) (*domain.OTP, error) {
	var found *domain.OTP
	err := r.store.view(func(d *snapshot) error {
		for i := range d.OTPs {
			if d.OTPs[i].Key == key {
				o := d.OTPs[i]
				found = &o
				return nil
			}
		}
		return domain.ErrOTPNotFound
	})
	return found, err
}

// Consume checks and removes the code under the write lock. An expired code is
// dropped even when it matches.
func (r *OTPRepository) Consume(_ context.Context, key, code string) (*domain.OTP, error) {
	var found *domain.OTP
	expired := false
	err := r.store.mutate(func(d *snapshot) error {
		for i := range d.OTPs {
			if d.OTPs[i].Key != key {
				continue
			}
			o := d.OTPs[i]
			if !domain.CodesMatch(o.OTP, code) {
				return domain.ErrInvalidOTP
			}
			d.OTPs = deleteOTP(d.OTPs, key)
			if o.IsExpired() {
				expired = true
				return nil
			}
			found = &o
			return nil
		}
		return domain.ErrOTPNotFound
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, domain.ErrOTPExpired
	}
	return found, nil
}

func deleteOTP(otps []domain.OTP, key string) []domain.OTP {
	out := otps[:0]
	for _, o := range otps {
		if o.Key != key {
			out = append(out, o)
		}
	}
	return out
}
