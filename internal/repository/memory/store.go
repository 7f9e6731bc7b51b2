// Package memory implements the repositories over in-process collections. When a
// data file is configured, every mutation rewrites the whole snapshot to disk and
// the snapshot is reloaded on start.
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"subscriber-journey/internal/domain"
	"sync"
	"time"
)

type userRecord struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"passwordHash"`
	Role         domain.Role `json:"role"`
	IsSubscribed bool        `json:"isSubscribed"`
	ResetCode    string      `json:"resetCode,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

type subscriberRecord struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	UserID           string    `json:"userId"`
	ListID           string    `json:"listId"`
	VerificationCode string    `json:"verificationCode,omitempty"`
	IsVerified       bool      `json:"isVerified"`
	OTPCode          string    `json:"otpCode,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// snapshot is the on-disk layout, one collection per key.
type snapshot struct {
	Users        []userRecord              `json:"users"`
	Subscribers  []subscriberRecord        `json:"subscribers"`
	Lists        []domain.SubscriptionList `json:"subscriptionLists"`
	Campaigns    []domain.Campaign         `json:"campaigns"`
	Coupons      []domain.Coupon           `json:"coupons"`
	SmtpSettings *domain.SmtpSettings      `json:"smtpSettings,omitempty"`
	OTPs         []domain.OTP              `json:"otps"`
}

type Store struct {
	mu   sync.RWMutex
	path string
	data snapshot
}

// Open returns a store backed by path. An empty path keeps everything in memory.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to decode data file: %w", err)
	}
	return s, nil
}

func (s *Store) Users() *UserRepository             { return &UserRepository{store: s} }
func (s *Store) Subscribers() *SubscriberRepository { return &SubscriberRepository{store: s} }
func (s *Store) Lists() *ListRepository             { return &ListRepository{store: s} }
func (s *Store) Campaigns() *CampaignRepository     { return &CampaignRepository{store: s} }
func (s *Store) Coupons() *CouponRepository         { return &CouponRepository{store: s} }
func (s *Store) Settings() *SettingsRepository      { return &SettingsRepository{store: s} }
func (s *Store) OTPs() *OTPRepository               { return &OTPRepository{store: s} }

// mutate runs fn under the write lock and persists the snapshot if fn succeeds.
// A failed write rolls the in-memory state back.
func (s *Store) mutate(fn func(d *snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var before []byte
	if s.path != "" {
		var err error
		if before, err = json.Marshal(s.data); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
	}

	if err := fn(&s.data); err != nil {
		return err
	}

	if s.path == "" {
		return nil
	}

	if err := s.flush(); err != nil {
		var restored snapshot
		if jsonErr := json.Unmarshal(before, &restored); jsonErr == nil {
			s.data = restored
		}
		return err
	}
	return nil
}

func (s *Store) view(fn func(d *snapshot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.data)
}

func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
