package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social_messenger/internal/domain"
	apperrors "social_messenger/pkg/errors"
)

func TestSendAndAcceptRequest(t *testing.T) {
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	svc := NewFriendshipService(newFakeFriendshipRepo(), newFakeUserRepo(alice, bob), newTestLogger())

	request, err := svc.SendRequest(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FriendshipStatusPending, request.Status)

	accepted, err := svc.Accept(context.Background(), bob.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FriendshipStatusAccepted, accepted.Status)

	friends, err := svc.ListFriends(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, bob.ID, friends[0].ID)
}

func TestSendRequestToSelf(t *testing.T) {
	alice := newTestUser("alice")
	svc := NewFriendshipService(newFakeFriendshipRepo(), newFakeUserRepo(alice), newTestLogger())

	_, err := svc.SendRequest(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSendRequestTwice(t *testing.T) {
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	svc := NewFriendshipService(newFakeFriendshipRepo(), newFakeUserRepo(alice, bob), newTestLogger())

	_, err := svc.SendRequest(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.SendRequest(context.Background(), alice.ID, bob.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// reverse direction is the same pair
	_, err = svc.SendRequest(context.Background(), bob.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAcceptByRequester(t *testing.T) {
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	svc := NewFriendshipService(newFakeFriendshipRepo(), newFakeUserRepo(alice, bob), newTestLogger())

	request, err := svc.SendRequest(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), alice.ID, request.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
}

func TestAcceptAlreadyAccepted(t *testing.T) {
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	svc := NewFriendshipService(newFakeFriendshipRepo(), newFakeUserRepo(alice, bob), newTestLogger())

	request, err := svc.SendRequest(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), bob.ID, request.ID)
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), bob.ID, request.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestReject(t *testing.T) {
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	svc := NewFriendshipService(newFakeFriendshipRepo(), newFakeUserRepo(alice, bob), newTestLogger())

	request, err := svc.SendRequest(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), bob.ID, request.ID))

	requests, err := svc.ListRequests(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)

	// rejection clears the pair, so a fresh request goes through
	_, err = svc.SendRequest(context.Background(), alice.ID, bob.ID)
	assert.NoError(t, err)
}

func TestListRequestsResolvesRequester(t *testing.T) {
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	svc := NewFriendshipService(newFakeFriendshipRepo(), newFakeUserRepo(alice, bob), newTestLogger())

	request, err := svc.SendRequest(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	requests, err := svc.ListRequests(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, request.ID, requests[0].ID)
	assert.Equal(t, alice.Name, requests[0].Requester.Name)
}

func TestRemoveFriend(t *testing.T) {
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	svc := NewFriendshipService(newFakeFriendshipRepo(), newFakeUserRepo(alice, bob), newTestLogger())

	request, err := svc.SendRequest(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), bob.ID, request.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFriend(context.Background(), alice.ID, bob.ID))

	friends, err := svc.ListFriends(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestRemoveFriendNotFriends(t *testing.T) {
	alice := newTestUser("alice")
	svc := NewFriendshipService(newFakeFriendshipRepo(), newFakeUserRepo(alice), newTestLogger())

	err := svc.RemoveFriend(context.Background(), alice.ID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAreFriends(t *testing.T) {
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	svc := NewFriendshipService(newFakeFriendshipRepo(), newFakeUserRepo(alice, bob), newTestLogger())

	friends, err := svc.AreFriends(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, friends)

	request, err := svc.SendRequest(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	// pending is not friendship yet
	friends, err = svc.AreFriends(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, friends)

	_, err = svc.Accept(context.Background(), bob.ID, request.ID)
	require.NoError(t, err)

	friends, err = svc.AreFriends(context.Background(), bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, friends)
}
