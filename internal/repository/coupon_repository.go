package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	GetAll(ctx context.Context) ([]*domain.Coupon, error)
	// GetActive returns the first active coupon.
	GetActive(ctx context.Context) (*domain.Coupon, error)
	SetActive(ctx context.Context, id string, active bool) error
	Count(ctx context.Context) (int, error)
}

type couponRepository struct {
	db *sql.DB
}

func NewCouponRepository(db *sql.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO coupons (id, code, description, is_active) VALUES ($1, $2, $3, $4)",
		coupon.ID, coupon.Code, coupon.Description, coupon.IsActive,
	)
	if err != nil {
		if isDuplicateError(err) {
			return domain.ErrCouponAlreadyExists
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

func (r *couponRepository) GetAll(ctx context.Context) ([]*domain.Coupon, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, code, description, is_active FROM coupons ORDER BY created_at, code")
	if err != nil {
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := []*domain.Coupon{}
	for rows.Next() {
		c := &domain.Coupon{}
		if err := rows.Scan(&c.ID, &c.Code, &c.Description, &c.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

func (r *couponRepository) GetActive(ctx context.Context) (*domain.Coupon, error) {
	c := &domain.Coupon{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, code, description, is_active FROM coupons WHERE is_active = TRUE ORDER BY created_at, code LIMIT 1",
	).Scan(&c.ID, &c.Code, &c.Description, &c.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoActiveCoupon
		}
		return nil, fmt.Errorf("failed to get active coupon: %w", err)
	}
	return c, nil
}

func (r *couponRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx, "UPDATE coupons SET is_active = $1 WHERE id = $2", active, id)
	if err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	return expectOneRow(result, domain.ErrCouponNotFound)
}

func (r *couponRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM coupons").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count coupons: %w", err)
	}
	return count, nil
}
