package memory

import (
	"context"
	"strings"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/repository"
)

var _ repository.CouponRepository = (*CouponRepository)(nil)

type CouponRepository struct {
	store *Store
}

func (r *CouponRepository) Create(_ context.Context, coupon *domain.Coupon) error {
	return r.store.mutate(func(d *snapshot) error {
		for _, c := range d.Coupons {
			if strings.EqualFold(c.Code, coupon.Code) {
				return domain.ErrCouponAlreadyExists
			}
		}
		d.Coupons = append(d.Coupons, *coupon)
		return nil
	})
}

func (r *CouponRepository) GetAll(_ context.Context) ([]*domain.Coupon, error) {
	out := []*domain.Coupon{}
	err := r.store.view(func(d *snapshot) error {
		for i := range d.Coupons {
			c := d.Coupons[i]
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func (r *CouponRepository) GetActive(_ context.Context) (*domain.Coupon, error) {
	var found *domain.Coupon
	err := r.store.view(func(d *snapshot) error {
		for i := range d.Coupons {
			if d.Coupons[i].IsActive {
				c := d.Coupons[i]
				found = &c
				return nil
			}
		}
		return domain.ErrNoActiveCoupon
	})
	return found, err
}

func (r *CouponRepository) SetActive(_ context.Context, id string, active bool) error {
	return r.store.mutate(func(d *snapshot) error {
		for i := range d.Coupons {
			if d.Coupons[i].ID == id {
				d.Coupons[i].IsActive = active
				return nil
			}
		}
		return domain.ErrCouponNotFound
	})
}

func (r *CouponRepository) Count(_ context.Context) (int, error) {
	var n int
	err := r.store.view(func(d *snapshot) error {
		n = len(d.Coupons)
		return nil
	})
	return n, err
}
