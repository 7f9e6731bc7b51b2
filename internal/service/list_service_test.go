package service

import (
	"context"
	"strings"
	"subscriber-journey/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListService_AddSubscriber(t *testing.T) {
	env := newTestEnv(t)
	svc := NewListService(env.store.Lists(), env.store.Subscribers())
	ctx := context.Background()

	list, err := svc.CreateList(ctx, "Customers", "Paying customers")
	require.NoError(t, err)

	sub, err := svc.AddSubscriberToList(ctx, "Bob@Example.com", "Bob", list.ID)
	require.NoError(t, err)
	assert.True(t, sub.IsVerified)
	assert.True(t, strings.HasPrefix(sub.UserID, "admin_added_"))
	assert.Equal(t, "bob@example.com", sub.Email)

	again, err := svc.AddSubscriberToList(ctx, "bob@example.com", "Robert", list.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)

	members, err := svc.ListSubscribers(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Bob", members[0].Name)
}

func TestListService_ReusesExistingSubscriberAcrossLists(t *testing.T) {
	env := newTestEnv(t)
	svc := NewListService(env.store.Lists(), env.store.Subscribers())
	ctx := context.Background()

	a, err := svc.CreateList(ctx, "A", "")
	require.NoError(t, err)
	b, err := svc.CreateList(ctx, "B", "")
	require.NoError(t, err)

	s1, err := svc.AddSubscriberToList(ctx, "bob@example.com", "Bob", a.ID)
	require.NoError(t, err)
	s2, err := svc.AddSubscriberToList(ctx, "bob@example.com", "Bob", b.ID)
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s2.ID)

	require.NoError(t, svc.RemoveSubscriberFromList(ctx, s1.ID, a.ID))

	inA, err := svc.ListSubscribers(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, inA)

	inB, err := svc.ListSubscribers(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, inB, 1)
}

func TestListService_Errors(t *testing.T) {
	env := newTestEnv(t)
	svc := NewListService(env.store.Lists(), env.store.Subscribers())
	ctx := context.Background()

	_, err := svc.CreateList(ctx, " ", "")
	assert.ErrorIs(t, err, domain.ErrInvalidListName)

	_, err = svc.AddSubscriberToList(ctx, "bob@example.com", "Bob", "missing")
	require.ErrorIs(t, err, domain.ErrListNotFound)
	assert.Equal(t, "List not found", err.Error())

	assert.ErrorIs(t, svc.RemoveSubscriberFromList(ctx, "s1", "missing"), domain.ErrListNotFound)

	_, err = svc.ListSubscribers(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrListNotFound)

	list, err := svc.CreateList(ctx, "A", "")
	require.NoError(t, err)
	_, err = svc.AddSubscriberToList(ctx, "bad address", "Bob", list.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}
