package memory

import (
	"context"
	"slices"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"time"
)

var _ repository.ListRepository = (*ListRepository)(nil)

type ListRepository struct {
	store *Store
}

func (r *ListRepository) Create(_ context.Context, list *domain.SubscriptionList) error {
	return r.store.mutate(func(d *snapshot) error {
		if list.CreatedAt.IsZero() {
			list.CreatedAt = time.Now().UTC()
		}
		if list.Subscribers == nil {
			list.Subscribers = []string{}
		}
		d.Lists = append(d.Lists, copyList(list))
		return nil
	})
}

func (r *ListRepository) GetAll(_ context.Context) ([]*domain.SubscriptionList, error) {
	out := []*domain.SubscriptionList{}
	err := r.store.view(func(d *snapshot) error {
		for i := range d.Lists {
			l := copyList(&d.Lists[i])
			out = append(out, &l)
		}
		return nil
	})
	return out, err
}

func (r *ListRepository) GetByID(_ context.Context, id string) (*domain.SubscriptionList, error) {
	var found *domain.SubscriptionList
	err := r.store.view(func(d *snapshot) error {
		list := findList(d, id)
		if list == nil {
			return domain.ErrListNotFound
		}
		l := copyList(list)
		found = &l
		return nil
	})
	return found, err
}

func (r *ListRepository) EnsureDefault(_ context.Context, list *domain.SubscriptionList) (*domain.SubscriptionList, error) {
	var found *domain.SubscriptionList
	err := r.store.mutate(func(d *snapshot) error {
		if len(d.Lists) == 0 {
			if list.CreatedAt.IsZero() {
				list.CreatedAt = time.Now().UTC()
			}
			if list.Subscribers == nil {
				list.Subscribers = []string{}
			}
			d.Lists = append(d.Lists, copyList(list))
		}
		l := copyList(&d.Lists[0])
		found = &l
		return nil
	})
	return found, err
}

func (r *ListRepository) AddSubscriber(_ context.Context, listID, subscriberID string) error {
	return r.store.mutate(func(d *snapshot) error {
		list := findList(d, listID)
		if list == nil {
			return domain.ErrListNotFound
		}
		if !list.Has(subscriberID) {
			list.Subscribers = append(list.Subscribers, subscriberID)
		}
		return nil
	})
}

func (r *ListRepository) RemoveSubscriber(_ context.Context, listID, subscriberID string) error {
	return r.store.mutate(func(d *snapshot) error {
		list := findList(d, listID)
		if list == nil {
			return domain.ErrListNotFound
		}
		list.Subscribers = slices.DeleteFunc(list.Subscribers, func(id string) bool { return id == subscriberID })
		return nil
	})
}

func (r *ListRepository) RemoveSubscriberFromAll(_ context.Context, subscriberID string) error {
	return r.store.mutate(func(d *snapshot) error {
		removeMember(d, subscriberID)
		return nil
	})
}

func findList(d *snapshot, id string) *domain.SubscriptionList {
	for i := range d.Lists {
		if d.Lists[i].ID == id {
			return &d.Lists[i]
		}
	}
	return nil
}

func removeMember(d *snapshot, subscriberID string) {
	for i := range d.Lists {
		d.Lists[i].Subscribers = slices.DeleteFunc(d.Lists[i].Subscribers, func(id string) bool { return id == subscriberID })
	}
}

func copyList(l *domain.SubscriptionList) domain.SubscriptionList {
	c := *l
	c.Subscribers = append([]string{}, l.Subscribers...)
	return c
}
