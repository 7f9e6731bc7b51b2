package domain

import "time"

type Subscriber struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	UserID           string    `json:"userId"`
	ListID           string    `json:"listId"`
	VerificationCode string    `json:"-"`
	IsVerified       bool      `json:"isVerified"`
	OTPCode          string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (s *Subscriber) Validate() error {
	if err := ValidateEmail(s.Email); err != nil {
		return err
	}
	if s.UserID == "" {
		return ErrInvalidUserID
	}
	return nil
}
