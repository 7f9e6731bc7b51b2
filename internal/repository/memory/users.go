package memory

import (
	"context"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
	"time"
)

var _ repository.UserRepository = (*UserRepository)(nil)

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	return r.store.mutate(func(d *snapshot) error {
		for _, u := range d.Users {
			if u.Email == user.Email {
				return domain.ErrUserAlreadyExists
			}
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now().UTC()
		}
		d.Users = append(d.Users, toUserRecord(user))
		return nil
	})
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *userRecord) bool { return u.Email == email })
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *userRecord) bool { return u.ID == id })
}

func (r *UserRepository) find(match func(*userRecord) bool) (*domain.User, error) {
	var found *domain.User
	err := r.store.view(func(d *snapshot) error {
		for i := range d.Users {
			if match(&d.Users[i]) {
				found = d.Users[i].toDomain()
				return nil
			}
		}
		return domain.ErrUserNotFound
	})
	return found, err
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	return r.store.mutate(func(d *snapshot) error {
		for i := range d.Users {
			if d.Users[i].ID == user.ID {
				rec := toUserRecord(user)
				rec.Email = d.Users[i].Email
				rec.CreatedAt = d.Users[i].CreatedAt
				d.Users[i] = rec
				return nil
			}
		}
		return domain.ErrUserNotFound
	})
}

func (r *UserRepository) ResetPassword(_ context.Context, email, code, passwordHash string) (*domain.User, error) {
	var found *domain.User
	err := r.store.mutate(func(d *snapshot) error {
		for i := range d.Users {
			rec := &d.Users[i]
			if rec.Email != email {
				continue
			}
			if !domain.CodesMatch(rec.ResetCode, code) {
				return domain.ErrInvalidResetCode
			}
			rec.PasswordHash = passwordHash
			rec.ResetCode = ""
			found = rec.toDomain()
			return nil
		}
		return domain.ErrInvalidResetCode
	})
	return found, err
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	var n int
	err := r.store.view(func(d *snapshot) error {
		n = len(d.Users)
		return nil
	})
	return n, err
}

func toUserRecord(u *domain.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsSubscribed: u.IsSubscribed,
		ResetCode:    u.ResetCode,
		CreatedAt:    u.CreatedAt,
	}
}

func (u *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsSubscribed: u.IsSubscribed,
		ResetCode:    u.ResetCode,
		CreatedAt:    u.CreatedAt,
	}
}
