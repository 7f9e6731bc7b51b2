package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const adminAddedPrefix = "admin_added_"

type ListService struct {
	listRepo       repository.ListRepository
	subscriberRepo repository.SubscriberRepository
}

func NewListService(listRepo repository.ListRepository, subscriberRepo repository.SubscriberRepository) *ListService {
	return &ListService{listRepo: listRepo, subscriberRepo: subscriberRepo}
}

func (s *ListService) GetLists(ctx context.Context) ([]*domain.SubscriptionList, error) {
	lists, err := s.listRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}
	return lists, nil
}

func (s *ListService) CreateList(ctx context.Context, name, description string) (*domain.SubscriptionList, error) {
	list := &domain.SubscriptionList{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Subscribers: []string{},
	}
	if err := list.Validate(); err != nil {
		return nil, err
	}

	if err := s.listRepo.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	log.Info().Str("list_id", list.ID).Str("name", list.Name).Msg("List created")
	return list, nil
}

// AddSubscriberToList adds email to the list. An address already known is
// reused; a new one is created verified since an admin vouched for it.
func (s *ListService) AddSubscriberToList(ctx context.Context, email, name, listID string) (*domain.Subscriber, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	if _, err := s.listRepo.GetByID(ctx, listID); err != nil {
		if errors.Is(err, domain.ErrListNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	sub, err := s.subscriberRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSubscriberNotFound):
		sub = &domain.Subscriber{
			ID:         uuid.NewString(),
			Email:      email,
			Name:       strings.TrimSpace(name),
			UserID:     adminAddedPrefix + strconv.FormatInt(time.Now().UnixMilli(), 10),
			ListID:     listID,
			IsVerified: true,
		}
		if err := s.subscriberRepo.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to create subscriber: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}

	if err := s.listRepo.AddSubscriber(ctx, listID, sub.ID); err != nil {
		return nil, fmt.Errorf("failed to add subscriber to list: %w", err)
	}

	log.Info().Str("list_id", listID).Str("subscriber_id", sub.ID).Msg("Subscriber added to list")
	return sub, nil
}

// RemoveSubscriberFromList drops the membership only; the subscriber stays.
func (s *ListService) RemoveSubscriberFromList(ctx context.Context, subscriberID, listID string) error {
	if _, err := s.listRepo.GetByID(ctx, listID); err != nil {
		if errors.Is(err, domain.ErrListNotFound) {
			return err
		}
		return fmt.Errorf("failed to get list: %w", err)
	}

	if err := s.listRepo.RemoveSubscriber(ctx, listID, subscriberID); err != nil {
		return fmt.Errorf("failed to remove subscriber from list: %w", err)
	}
	return nil
}

func (s *ListService) ListSubscribers(ctx context.Context, listID string) ([]*domain.Subscriber, error) {
	if _, err := s.listRepo.GetByID(ctx, listID); err != nil {
		if errors.Is(err, domain.ErrListNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	subs, err := s.subscriberRepo.GetByListID(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to get list subscribers: %w", err)
	}
	return subs, nil
}
