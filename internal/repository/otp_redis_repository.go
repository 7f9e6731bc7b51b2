package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

// consumeScript deletes the stored code only when it matches ARGV[1]. It
// returns the stored payload on a match and 0 on a mismatch.
var consumeScript = redis.NewScript(`
local payload = redis.call("GET", KEYS[1])
if not payload then
	return false
end
if cjson.decode(payload).otp ~= ARGV[1] then
	return 0
end
redis.call("DEL", KEYS[1])
return payload
`)

type redisOTPRepository struct {
	client *redis.Client
}

// NewRedisOTPRepository keeps codes in Redis and lets key expiry retire them.
func NewRedisOTPRepository(client *redis.Client) OTPRepository {
	return &redisOTPRepository{client: client}
}

func (r *redisOTPRepository) Store(ctx context.Context, otp *domain.OTP) error {
	if err := otp.Validate(); err != nil {
		return err
	}

	ttl := time.Until(otp.ExpiresAt)
	if ttl <= 0 {
		return domain.ErrInvalidOTPExpiry
	}

	payload, err := json.Marshal(otp)
	if err != nil {
		return fmt.Errorf("failed to encode OTP: %w", err)
	}

	if err := r.client.Set(ctx, otpKeyPrefix+otp.Key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	return nil
}

func (r *redisOTPRepository) GetByKey(ctx context.Context, key string) (*domain.OTP, error) {
	payload, err := r.client.Get(ctx, otpKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, fmt.Errorf("failed to get OTP: %w", err)
	}

	otp := &domain.OTP{}
	if err := json.Unmarshal(payload, otp); err != nil {
		return nil, fmt.Errorf("failed to decode OTP: %w", err)
	}
	return otp, nil
}

func (r *redisOTPRepository) Consume(ctx context.Context, key, code string) (*domain.OTP, error) {
	res, err := consumeScript.Run(ctx, r.client, []string{otpKeyPrefix + key}, code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, fmt.Errorf("failed to consume OTP: %w", err)
	}

	payload, ok := res.(string)
	if !ok {
		return nil, domain.ErrInvalidOTP
	}

	otp := &domain.OTP{}
	if err := json.Unmarshal([]byte(payload), otp); err != nil {
		return nil, fmt.Errorf("failed to decode OTP: %w", err)
	}
	return otp, nil
}
