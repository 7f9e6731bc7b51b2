package memory

import (
	"context"
	"slices"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"time"
)

var _ repository.SubscriberRepository = (*SubscriberRepository)(nil)

type SubscriberRepository struct {
	store *Store
}

func (r *SubscriberRepository) Create(_ context.Context, subscriber *domain.Subscriber) error {
	return r.store.mutate(func(d *snapshot) error {
		for _, s := range d.Subscribers {
			if s.ID == subscriber.ID {
				return domain.ErrSubscriberAlreadyExists
			}
		}
		if subscriber.CreatedAt.IsZero() {
			subscriber.CreatedAt = time.Now().UTC()
		}
		d.Subscribers = append(d.Subscribers, subscriberRecord(*subscriber))
		return nil
	})
}

func (r *SubscriberRepository) GetByID(_ context.Context, id string) (*domain.Subscriber, error) {
	return r.find(func(s *subscriberRecord) bool { return s.ID == id })
}

func (r *SubscriberRepository) GetByUserID(_ context.Context, userID string) (*domain.Subscriber, error) {
	return r.find(func(s *subscriberRecord) bool { return s.UserID == userID })
}

func (r *SubscriberRepository) GetByEmail(_ context.Context, email string) (*domain.Subscriber, error) {
	return r.find(func(s *subscriberRecord) bool { return s.Email == email })
}

func (r *SubscriberRepository) find(match func(*subscriberRecord) bool) (*domain.Subscriber, error) {
	var found *domain.Subscriber
	err := r.store.view(func(d *snapshot) error {
		for i := range d.Subscribers {
			if match(&d.Subscribers[i]) {
				s := domain.Subscriber(d.Subscribers[i])
				found = &s
				return nil
			}
		}
		return domain.ErrSubscriberNotFound
	})
	return found, err
}

func (r *SubscriberRepository) Update(_ context.Context, subscriber *domain.Subscriber) error {
	return r.store.mutate(func(d *snapshot) error {
		for i := range d.Subscribers {
			if d.Subscribers[i].ID == subscriber.ID {
				rec := subscriberRecord(*subscriber)
				rec.CreatedAt = d.Subscribers[i].CreatedAt
				d.Subscribers[i] = rec
				return nil
			}
		}
		return domain.ErrSubscriberNotFound
	})
}

// Delete removes the subscriber and its list memberships.
func (r *SubscriberRepository) Delete(_ context.Context, id string) error {
	return r.store.mutate(func(d *snapshot) error {
		idx := slices.IndexFunc(d.Subscribers, func(s subscriberRecord) bool { return s.ID == id })
		if idx < 0 {
			return domain.ErrSubscriberNotFound
		}
		d.Subscribers = slices.Delete(d.Subscribers, idx, idx+1)
		removeMember(d, id)
		return nil
	})
}

func (r *SubscriberRepository) ConfirmVerification(_ context.Context, userID, code string) (*domain.Subscriber, error) {
	var found *domain.Subscriber
	err := r.store.mutate(func(d *snapshot) error {
		for i := range d.Subscribers {
			rec := &d.Subscribers[i]
			if rec.UserID != userID {
				continue
			}
			if !domain.CodesMatch(rec.VerificationCode, code) {
				return domain.ErrInvalidVerificationCode
			}
			rec.IsVerified = true
			rec.VerificationCode = ""
			s := domain.Subscriber(*rec)
			found = &s
			return nil
		}
		return domain.ErrInvalidVerificationCode
	})
	return found, err
}

func (r *SubscriberRepository) ConsumeOTPCode(_ context.Context, userID, code string) (*domain.Subscriber, error) {
	var found *domain.Subscriber
	err := r.store.mutate(func(d *snapshot) error {
		for i := range d.Subscribers {
			rec := &d.Subscribers[i]
			if rec.UserID != userID {
				continue
			}
			if !domain.CodesMatch(rec.OTPCode, code) {
				return domain.ErrInvalidOTP
			}
			rec.OTPCode = ""
			s := domain.Subscriber(*rec)
			found = &s
			return nil
		}
		return domain.ErrInvalidOTP
	})
	return found, err
}

func (r *SubscriberRepository) GetByListID(_ context.Context, listID string) ([]*domain.Subscriber, error) {
	out := []*domain.Subscriber{}
	err := r.store.view(func(d *snapshot) error {
		list := findList(d, listID)
		if list == nil {
			return nil
		}
		for _, id := range list.Subscribers {
			if s := findSubscriber(d, id); s != nil {
				sub := domain.Subscriber(*s)
				out = append(out, &sub)
			}
		}
		return nil
	})
	return out, err
}

// GetVerifiedByListIDs returns each verified member of the given lists once, in
// list order.
func (r *SubscriberRepository) GetVerifiedByListIDs(_ context.Context, listIDs []string) ([]*domain.Subscriber, error) {
	out := []*domain.Subscriber{}
	err := r.store.view(func(d *snapshot) error {
		seen := make(map[string]bool)
		for _, listID := range listIDs {
			list := findList(d, listID)
			if list == nil {
				continue
			}
			for _, id := range list.Subscribers {
				if seen[id] {
					continue
				}
				s := findSubscriber(d, id)
				if s == nil || !s.IsVerified {
					continue
				}
				seen[id] = true
				sub := domain.Subscriber(*s)
				out = append(out, &sub)
			}
		}
		return nil
	})
	return out, err
}

func findSubscriber(d *snapshot, id string) *subscriberRecord {
	for i := range d.Subscribers {
		if d.Subscribers[i].ID == id {
			return &d.Subscribers[i]
		}
	}
	return nil
}
