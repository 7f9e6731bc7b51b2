package domain

import "strings"

const (
	DefaultCouponCode        = "WELCOME10"
	DefaultCouponDescription = "Welcome discount 10%"
)

type Coupon struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

func (c *Coupon) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return ErrInvalidCouponCode
	}
	return nil
}
