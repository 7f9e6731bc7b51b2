package service

import (
	"context"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"subscriber-journey/pkg/render"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type SubscriptionService struct {
	userRepo       repository.UserRepository
	subscriberRepo repository.SubscriberRepository
	listRepo       repository.ListRepository
	mailer         *Mailer
	codes          CodeGenerator
}

func NewSubscriptionService(
	userRepo repository.UserRepository,
	subscriberRepo repository.SubscriberRepository,
	listRepo repository.ListRepository,
	mailer *Mailer,
	codes CodeGenerator,
) *SubscriptionService {
	return &SubscriptionService{
		userRepo:       userRepo,
		subscriberRepo: subscriberRepo,
		listRepo:       listRepo,
		mailer:         mailer,
		codes:          codes,
	}
}

// SubscriptionStatus describes a user's place in the subscription flow.
type SubscriptionStatus struct {
	Subscribed bool   `json:"subscribed"`
	Pending    bool   `json:"pending"`
	Email      string `json:"email,omitempty"`
	ListID     string `json:"listId,omitempty"`
}

func (s *SubscriptionService) Status(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	sub, err := s.subscriberRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriberNotFound) {
			return &SubscriptionStatus{}, nil
		}
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}

	return &SubscriptionStatus{
		Subscribed: sub.IsVerified,
		Pending:    !sub.IsVerified && sub.VerificationCode != "",
		Email:      sub.Email,
		ListID:     sub.ListID,
	}, nil
}

// Subscribe starts the double opt-in. A pending subscriber gets a new code; a
// first-time subscriber joins the default list once verified.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, email, name string) error {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}

	existing, err := s.subscriberRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrSubscriberNotFound) {
		return fmt.Errorf("failed to get subscriber: %w", err)
	}
	if existing != nil && existing.IsVerified {
		return domain.ErrAlreadySubscribed
	}

	list, err := s.defaultList(ctx)
	if err != nil {
		return err
	}

	code, err := s.codes.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	if existing != nil {
		existing.VerificationCode = code
		existing.IsVerified = false
		if err := s.subscriberRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update subscriber: %w", err)
		}
	} else {
		sub := &domain.Subscriber{
			ID:               uuid.NewString(),
			Email:            email,
			Name:             name,
			UserID:           userID,
			ListID:           list.ID,
			VerificationCode: code,
		}
		if err := sub.Validate(); err != nil {
			return err
		}
		if err := s.subscriberRepo.Create(ctx, sub); err != nil {
			return fmt.Errorf("failed to create subscriber: %w", err)
		}
	}

	log.Debug().Str("email", email).Msg("Verification code issued")

	return s.mailer.Send(ctx, email, subjectVerifySubscription, verifySubscriptionTemplate, render.Bindings{
		"name": name,
		"code": code,
	})
}

func (s *SubscriptionService) defaultList(ctx context.Context) (*domain.SubscriptionList, error) {
	candidate := &domain.SubscriptionList{
		ID:          uuid.NewString(),
		Name:        domain.DefaultListName,
		Description: domain.DefaultListDescription,
	}
	list, err := s.listRepo.EnsureDefault(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to get default list: %w", err)
	}

	if list.ID == candidate.ID {
		log.Info().Str("list_id", list.ID).Msg("Created default subscription list")
	}
	return list, nil
}

func (s *SubscriptionService) VerifySubscription(ctx context.Context, userID, code string) error {
	if err := domain.ValidateOTPFormat(code); err != nil {
		return err
	}

	sub, err := s.subscriberRepo.ConfirmVerification(ctx, userID, code)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidVerificationCode) {
			return err
		}
		return fmt.Errorf("failed to verify subscriber: %w", err)
	}

	if sub.ListID != "" {
		if err := s.listRepo.AddSubscriber(ctx, sub.ListID, sub.ID); err != nil && !errors.Is(err, domain.ErrListNotFound) {
			return fmt.Errorf("failed to add subscriber to list: %w", err)
		}
	}

	s.setUserSubscribed(ctx, userID, true)

	log.Info().Str("subscriber_id", sub.ID).Msg("Subscription verified")

	if err := s.mailer.Send(ctx, sub.Email, subjectWelcome, welcomeTemplate, render.Bindings{"name": sub.Name}); err != nil {
		log.Warn().Err(err).Str("subscriber_id", sub.ID).Msg("Welcome email not delivered")
	}
	return nil
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID string) error {
	sub, err := s.subscriberRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriberNotFound) {
			return domain.ErrNotSubscribed
		}
		return fmt.Errorf("failed to get subscriber: %w", err)
	}
	if !sub.IsVerified {
		return domain.ErrNotSubscribed
	}

	code, err := s.codes.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	sub.OTPCode = code
	if err := s.subscriberRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscriber: %w", err)
	}

	log.Debug().Str("email", sub.Email).Msg("Unsubscribe OTP issued")

	return s.mailer.SendCode(ctx, sub.Email, code, PurposeUnsubscribe, subjectConfirmUnsubscribe, confirmUnsubscribeTemplate, render.Bindings{
		"name": sub.Name,
		"code": code,
	})
}

// VerifyUnsubscription removes the subscriber from every list and deletes it.
// Only the caller that clears the code goes on to delete.
func (s *SubscriptionService) VerifyUnsubscription(ctx context.Context, userID, otp string) error {
	if err := domain.ValidateOTPFormat(otp); err != nil {
		return err
	}

	sub, err := s.subscriberRepo.ConsumeOTPCode(ctx, userID, otp)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOTP) {
			return err
		}
		return fmt.Errorf("failed to consume unsubscribe code: %w", err)
	}

	if err := s.listRepo.RemoveSubscriberFromAll(ctx, sub.ID); err != nil {
		return fmt.Errorf("failed to remove subscriber from lists: %w", err)
	}
	if err := s.subscriberRepo.Delete(ctx, sub.ID); err != nil && !errors.Is(err, domain.ErrSubscriberNotFound) {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}

	s.setUserSubscribed(ctx, userID, false)

	log.Info().Str("subscriber_id", sub.ID).Msg("Subscriber unsubscribed")

	if err := s.mailer.Send(ctx, sub.Email, subjectUnsubscribed, unsubscribedTemplate, render.Bindings{"name": sub.Name}); err != nil {
		log.Warn().Err(err).Str("subscriber_id", sub.ID).Msg("Farewell email not delivered")
	}
	return nil
}

func (s *SubscriptionService) setUserSubscribed(ctx context.Context, userID string, subscribed bool) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load user for subscription flag")
		}
		return
	}

	user.IsSubscribed = subscribed
	if err := s.userRepo.Update(ctx, user); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to update subscription flag")
	}
}
