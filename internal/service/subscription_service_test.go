package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"subscriber-journey/internal/domain"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscriptionService(env *testEnv) *SubscriptionService {
	return NewSubscriptionService(env.store.Users(), env.store.Subscribers(), env.store.Lists(), env.mailer, env.codes)
}

func TestSubscriptionService_SubscribeAndVerify(t *testing.T) {
	env := newTestEnv(t, "111111")
	svc := newSubscriptionService(env)
	ctx := context.Background()
	env.createUser(t, "u1", "ann@example.com", "Ann")

	require.NoError(t, svc.Subscribe(ctx, "u1", "ann@example.com", "Ann"))

	msg := env.sender.last(t)
	assert.Equal(t, subjectVerifySubscription, msg.Subject)
	assert.Contains(t, msg.HTML, "111111")
	assert.Contains(t, msg.HTML, "Hello Ann")

	lists, err := env.store.Lists().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, domain.DefaultListName, lists[0].Name)
	assert.Empty(t, lists[0].Subscribers)

	status, err := svc.Status(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, status.Pending)
	assert.False(t, status.Subscribed)

	assert.ErrorIs(t, svc.VerifySubscription(ctx, "u1", "222222"), domain.ErrInvalidVerificationCode)
	require.NoError(t, svc.VerifySubscription(ctx, "u1", "111111"))
	assert.Equal(t, subjectWelcome, env.sender.last(t).Subject)

	sub, err := env.store.Subscribers().GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, sub.IsVerified)
	assert.Empty(t, sub.VerificationCode)

	list, err := env.store.Lists().GetByID(ctx, lists[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{sub.ID}, list.Subscribers)

	user, err := env.store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, user.IsSubscribed)

	// The code is consumed.
	assert.ErrorIs(t, svc.VerifySubscription(ctx, "u1", "111111"), domain.ErrInvalidVerificationCode)
	assert.ErrorIs(t, svc.Subscribe(ctx, "u1", "ann@example.com", "Ann"), domain.ErrAlreadySubscribed)
}

func TestSubscriptionService_ResubscribeReplacesCode(t *testing.T) {
	env := newTestEnv(t, "111111", "222222")
	svc := newSubscriptionService(env)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "u1", "ann@example.com", "Ann"))
	require.NoError(t, svc.Subscribe(ctx, "u1", "ann@example.com", "Ann"))

	assert.ErrorIs(t, svc.VerifySubscription(ctx, "u1", "111111"), domain.ErrInvalidVerificationCode)
	assert.NoError(t, svc.VerifySubscription(ctx, "u1", "222222"))

	lists, err := env.store.Lists().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func TestSubscriptionService_RejectsMalformedCodes(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubscriptionService(env)
	ctx := context.Background()

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		assert.ErrorIs(t, svc.VerifySubscription(ctx, "u1", code), domain.ErrInvalidOTPFormat, code)
		assert.ErrorIs(t, svc.VerifyUnsubscription(ctx, "u1", code), domain.ErrInvalidOTPFormat, code)
	}
}

func TestSubscriptionService_UnsubscribeFlow(t *testing.T) {
	env := newTestEnv(t, "111111", "333333")
	svc := newSubscriptionService(env)
	ctx := context.Background()
	env.createUser(t, "u1", "ann@example.com", "Ann")

	assert.ErrorIs(t, svc.Unsubscribe(ctx, "u1"), domain.ErrNotSubscribed)

	require.NoError(t, svc.Subscribe(ctx, "u1", "ann@example.com", "Ann"))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, "u1"), domain.ErrNotSubscribed)
	require.NoError(t, svc.VerifySubscription(ctx, "u1", "111111"))

	sub, err := env.store.Subscribers().GetByUserID(ctx, "u1")
	require.NoError(t, err)
	vip, err := NewListService(env.store.Lists(), env.store.Subscribers()).CreateList(ctx, "VIP", "")
	require.NoError(t, err)
	require.NoError(t, env.store.Lists().AddSubscriber(ctx, vip.ID, sub.ID))

	require.NoError(t, svc.Unsubscribe(ctx, "u1"))
	msg := env.sender.last(t)
	assert.Equal(t, subjectConfirmUnsubscribe, msg.Subject)
	assert.Contains(t, msg.HTML, "333333")

	err = svc.VerifyUnsubscription(ctx, "u1", "999999")
	require.ErrorIs(t, err, domain.ErrInvalidOTP)
	assert.Equal(t, "Invalid OTP", err.Error())

	require.NoError(t, svc.VerifyUnsubscription(ctx, "u1", "333333"))
	assert.Equal(t, subjectUnsubscribed, env.sender.last(t).Subject)

	_, err = env.store.Subscribers().GetByUserID(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrSubscriberNotFound)

	lists, err := env.store.Lists().GetAll(ctx)
	require.NoError(t, err)
	for _, l := range lists {
		assert.NotContains(t, l.Subscribers, sub.ID)
	}

	user, err := env.store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, user.IsSubscribed)

	assert.ErrorIs(t, svc.VerifyUnsubscription(ctx, "u1", "333333"), domain.ErrInvalidOTP)
}

func TestSubscriptionService_ConcurrentUnsubscribeDeletesOnce(t *testing.T) {
	env := newTestEnv(t, "111111", "333333")
	svc := newSubscriptionService(env)
	ctx := context.Background()
	env.createUser(t, "u1", "ann@example.com", "Ann")

	require.NoError(t, svc.Subscribe(ctx, "u1", "ann@example.com", "Ann"))
	require.NoError(t, svc.VerifySubscription(ctx, "u1", "111111"))
	require.NoError(t, svc.Unsubscribe(ctx, "u1"))

	var (
		mu   sync.Mutex
		errs []error
	)
	won := concurrently(10, func() error {
		err := svc.VerifyUnsubscription(ctx, "u1", "333333")
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
		return err
	})
	assert.Equal(t, 1, won)
	for _, err := range errs {
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	}
	assert.Equal(t, 1, env.sender.countSubject(subjectUnsubscribed))
}

func TestSubscriptionService_ConcurrentVerifyConfirmsOnce(t *testing.T) {
	env := newTestEnv(t, "111111")
	svc := newSubscriptionService(env)
	ctx := context.Background()
	env.createUser(t, "u1", "ann@example.com", "Ann")

	require.NoError(t, svc.Subscribe(ctx, "u1", "ann@example.com", "Ann"))

	won := concurrently(10, func() error {
		return svc.VerifySubscription(ctx, "u1", "111111")
	})
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, env.sender.countSubject(subjectWelcome))
}

func TestSubscriptionService_ConcurrentFirstSubscribersShareDefaultList(t *testing.T) {
	codes := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		codes = append(codes, fmt.Sprintf("%06d", 100000+i))
	}
	env := newTestEnv(t, codes...)
	svc := newSubscriptionService(env)
	ctx := context.Background()

	var next atomic.Int32
	won := concurrently(10, func() error {
		i := next.Add(1)
		userID := fmt.Sprintf("u%d", i)
		return svc.Subscribe(ctx, userID, fmt.Sprintf("user%d@example.com", i), "User")
	})
	assert.Equal(t, 10, won)

	lists, err := env.store.Lists().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, domain.DefaultListName, lists[0].Name)
}

func TestSubscriptionService_DeliveryFailureSurfaces(t *testing.T) {
	env := newTestEnv(t, "111111")
	env.sender.err = errors.New("connection refused")
	svc := newSubscriptionService(env)

	err := svc.Subscribe(context.Background(), "u1", "ann@example.com", "Ann")
	assert.ErrorIs(t, err, domain.ErrEmailDelivery)

	// The pending subscriber is kept so the user can ask again.
	_, err = env.store.Subscribers().GetByUserID(context.Background(), "u1")
	assert.NoError(t, err)
}

func TestIssuedCodesStayOutOfLogs(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })

	env := newTestEnv(t, "111111", "222222", "333333", "444444")
	subs := newSubscriptionService(env)
	auth := NewAuthService(env.store.Users(), env.mailer, env.codes)
	coupons := newCouponService(t, env, time.Hour)
	ctx := context.Background()

	_, err := auth.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)
	user, err := env.store.Users().GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)

	require.NoError(t, subs.Subscribe(ctx, user.ID, "ann@example.com", "Ann"))
	require.NoError(t, subs.VerifySubscription(ctx, user.ID, "111111"))
	require.NoError(t, subs.Unsubscribe(ctx, user.ID))
	require.NoError(t, auth.RequestPasswordReset(ctx, "ann@example.com"))
	require.NoError(t, coupons.RequestCoupon(ctx, user.ID, "ann@example.com"))

	out := buf.String()
	require.NotEmpty(t, out)
	for _, code := range []string{"111111", "222222", "333333", "444444"} {
		assert.NotContains(t, out, code)
	}
}
