package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
	"messenger-service/internal/users"
)

type friendFixture struct {
	friends *mocks.FriendRepositoryMock
	convs   *mocks.ConversationRepositoryMock
	msgs    *mocks.MessageRepositoryMock
	files   *mocks.FileRepositoryMock
	blobs   *mocks.BlobStoreMock
	dir     *mocks.DirectoryMock
	svc     *services.FriendService
}

func newFriendFixture() *friendFixture {
	f := &friendFixture{
		friends: new(mocks.FriendRepositoryMock),
		convs:   new(mocks.ConversationRepositoryMock),
		msgs:    new(mocks.MessageRepositoryMock),
		files:   new(mocks.FileRepositoryMock),
		blobs:   new(mocks.BlobStoreMock),
		dir:     new(mocks.DirectoryMock),
	}
	f.svc = services.NewFriendService(f.friends, f.convs, f.msgs, f.files, f.blobs, f.dir)
	return f
}

func TestSendRequestToSelf(t *testing.T) {
	f := newFriendFixture()
	f.dir.On("FindByHandle", mock.Anything, "alice").Return(models.User{ID: "u1", Username: "alice"}, nil).Once()

	_, err := f.svc.SendRequest(context.Background(), "u1", "alice")
	assert.ErrorIs(t, err, apperrors.ErrSelfFriendRequest)
	f.friends.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRequestUnknownRecipient(t *testing.T) {
	f := newFriendFixture()
	f.dir.On("FindByHandle", mock.Anything, "ghost").Return(models.User{}, users.ErrUserNotFound).Once()

	_, err := f.svc.SendRequest(context.Background(), "u1", "ghost")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestSendRequestAlreadyFriends(t *testing.T) {
	f := newFriendFixture()
	f.dir.On("FindByHandle", mock.Anything, "bob").Return(models.User{ID: "u2", Username: "bob"}, nil).Once()
	f.friends.On("AreFriends", mock.Anything, "u1", "u2").Return(true, nil).Once()

	_, err := f.svc.SendRequest(context.Background(), "u1", "bob")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyFriends)
}

func TestSendRequestDuplicatePending(t *testing.T) {
	f := newFriendFixture()
	f.dir.On("FindByHandle", mock.Anything, "bob").Return(models.User{ID: "u2", Username: "bob"}, nil).Once()
	f.friends.On("AreFriends", mock.Anything, "u1", "u2").Return(false, nil).Once()
	f.friends.On("HasPendingRequest", mock.Anything, "u1", "u2").Return(true, nil).Once()

	_, err := f.svc.SendRequest(context.Background(), "u1", "bob")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateRequest)
	f.friends.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRequestSuccess(t *testing.T) {
	f := newFriendFixture()
	f.dir.On("FindByHandle", mock.Anything, "bob").Return(models.User{ID: "u2", Username: "bob", DisplayName: "Bob"}, nil).Once()
	f.friends.On("AreFriends", mock.Anything, "u1", "u2").Return(false, nil).Once()
	f.friends.On("HasPendingRequest", mock.Anything, "u1", "u2").Return(false, nil).Once()
	f.friends.On("CreateRequest", mock.Anything, "u1", "u2").Return(models.FriendRequest{ID: "req1", SenderID: "u1", RecipientID: "u2"}, nil).Once()
	f.dir.On("FindByID", mock.Anything, "u2").Return(models.User{ID: "u2", Username: "bob", DisplayName: "Bob"}, nil).Once()
	f.files.On("GetImage", mock.Anything, "u2").Return(models.ImageMeta{}, repositories.ErrImageNotFound).Once()

	dto, err := f.svc.SendRequest(context.Background(), "u1", "bob")
	require.NoError(t, err)
	assert.Equal(t, "req1", dto.RequestID)
	assert.Equal(t, "bob", dto.Username)
	assert.True(t, dto.IsOutbound)
	f.friends.AssertExpectations(t)
}

func TestAcceptOnlyByRecipient(t *testing.T) {
	f := newFriendFixture()
	f.friends.On("GetRequest", mock.Anything, "req1").Return(models.FriendRequest{ID: "req1", SenderID: "u1", RecipientID: "u2"}, nil).Once()

	_, err := f.svc.Accept(context.Background(), "u1", "req1")
	assert.ErrorIs(t, err, apperrors.ErrNotRequestRecipient)
	f.friends.AssertNotCalled(t, "AcceptRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptCreatesFriendshipWithConversation(t *testing.T) {
	f := newFriendFixture()
	f.friends.On("GetRequest", mock.Anything, "req1").Return(models.FriendRequest{ID: "req1", SenderID: "u1", RecipientID: "u2"}, nil).Once()
	f.friends.On("AcceptRequest", mock.Anything, "req1", "u1", "u2").
		Return(models.Friend{ID: "f1", Person1ID: "u1", Person2ID: "u2", ConversationID: "c1"},
			models.Conversation{ID: "c1"}, nil).Once()
	f.dir.On("FindByID", mock.Anything, "u1").Return(models.User{ID: "u1", Username: "alice", DisplayName: "Alice"}, nil).Once()
	f.files.On("GetImage", mock.Anything, "u1").Return(models.ImageMeta{}, repositories.ErrImageNotFound).Once()
	f.msgs.On("CountMessages", mock.Anything, "c1").Return(0, nil).Once()
	f.convs.On("GetRecipient", mock.Anything, "c1", "u2").Return(models.Recipient{ID: "r2", ConversationID: "c1", UserID: "u2"}, nil).Once()
	f.msgs.On("LastMessage", mock.Anything, "c1").Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	dto, err := f.svc.Accept(context.Background(), "u2", "req1")
	require.NoError(t, err)
	assert.Equal(t, "alice", dto.Username)
	assert.Equal(t, "c1", dto.ConversationID)
	assert.Equal(t, 0, dto.MessageCount)
	assert.Nil(t, dto.LastMessage)
	f.friends.AssertExpectations(t)
}

func TestDeclineByEitherParty(t *testing.T) {
	f := newFriendFixture()
	f.friends.On("GetRequest", mock.Anything, "req1").Return(models.FriendRequest{ID: "req1", SenderID: "u1", RecipientID: "u2"}, nil).Twice()
	f.friends.On("DeleteRequest", mock.Anything, "req1").Return(nil).Twice()

	require.NoError(t, f.svc.Decline(context.Background(), "u1", "req1"))
	require.NoError(t, f.svc.Decline(context.Background(), "u2", "req1"))
}

func TestDeclineByStranger(t *testing.T) {
	f := newFriendFixture()
	f.friends.On("GetRequest", mock.Anything, "req1").Return(models.FriendRequest{ID: "req1", SenderID: "u1", RecipientID: "u2"}, nil).Once()

	err := f.svc.Decline(context.Background(), "u3", "req1")
	assert.ErrorIs(t, err, apperrors.ErrNotRequestParty)
	f.friends.AssertNotCalled(t, "DeleteRequest", mock.Anything, mock.Anything)
}

func TestRemoveFriendCascadesConversation(t *testing.T) {
	f := newFriendFixture()
	f.dir.On("FindByHandle", mock.Anything, "bob").Return(models.User{ID: "u2", Username: "bob"}, nil).Once()
	f.friends.On("GetFriendByPair", mock.Anything, "u1", "u2").Return(models.Friend{ID: "f1", Person1ID: "u1", Person2ID: "u2", ConversationID: "c1"}, nil).Once()
	f.convs.On("DeleteConversation", mock.Anything, "c1").Return([]string{"file1", "file2"}, nil).Once()
	f.blobs.On("Delete", mock.Anything, "file1").Return(nil).Once()
	f.blobs.On("Delete", mock.Anything, "file2").Return(nil).Once()

	require.NoError(t, f.svc.RemoveFriend(context.Background(), "u1", "bob"))
	f.blobs.AssertExpectations(t)
}

func TestRemoveFriendNotFriends(t *testing.T) {
	f := newFriendFixture()
	f.dir.On("FindByHandle", mock.Anything, "bob").Return(models.User{ID: "u2", Username: "bob"}, nil).Once()
	f.friends.On("GetFriendByPair", mock.Anything, "u1", "u2").Return(models.Friend{}, repositories.ErrFriendNotFound).Once()

	err := f.svc.RemoveFriend(context.Background(), "u1", "bob")
	assert.ErrorIs(t, err, apperrors.ErrNotFriends)
	f.convs.AssertNotCalled(t, "DeleteConversation", mock.Anything, mock.Anything)
}
