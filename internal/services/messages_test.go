package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
)

func strPtr(s string) *string { return &s }

func newMessageService(msgs *mocks.MessageRepositoryMock, convs *mocks.ConversationRepositoryMock, dir *mocks.DirectoryMock, notifier *mocks.NotifierMock) *services.MessageService {
	fanout := services.NewFanOut(convs, notifier)
	return services.NewMessageService(msgs, convs, dir, fanout)
}

func TestPostMessageNotifiesOtherRecipients(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	dir := new(mocks.DirectoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newMessageService(msgs, convs, dir, notifier)

	convs.On("GetConversation", mock.Anything, "c1").Return(models.Conversation{ID: "c1"}, nil).Once()
	convs.On("GetRecipient", mock.Anything, "c1", "u1").Return(models.Recipient{ID: "r1", ConversationID: "c1", UserID: "u1"}, nil).Once()
	msgs.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.ConversationID == "c1" && m.Content == "hello" && m.SentBy("u1")
	})).Return(models.Message{ID: "m1", ConversationID: "c1", SenderID: strPtr("u1"), Content: "hello", CreatedAt: time.Now()}, nil).Once()
	dir.On("FindByID", mock.Anything, "u1").Return(models.User{ID: "u1", Username: "alice"}, nil).Once()
	convs.On("RecipientUserIDs", mock.Anything, "c1").Return([]string{"u1", "u2", "u3"}, nil).Once()
	notifier.On("Notify", []string{"u2", "u3"}, services.EventMessage, mock.Anything).Once()

	dto, err := svc.Post(context.Background(), "u1", "c1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "m1", dto.MessageID)
	assert.Equal(t, "alice", dto.SenderName)
	assert.Nil(t, dto.DateEdited)

	msgs.AssertExpectations(t)
	convs.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestPostMessageEmptyContent(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	svc := newMessageService(msgs, convs, new(mocks.DirectoryMock), new(mocks.NotifierMock))

	_, err := svc.Post(context.Background(), "u1", "c1", "")
	assert.ErrorIs(t, err, apperrors.ErrEmptyContent)
	msgs.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestPostMessageRequiresMembership(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	svc := newMessageService(msgs, convs, new(mocks.DirectoryMock), new(mocks.NotifierMock))

	convs.On("GetConversation", mock.Anything, "c1").Return(models.Conversation{ID: "c1"}, nil).Once()
	convs.On("GetRecipient", mock.Anything, "c1", "stranger").Return(models.Recipient{}, repositories.ErrRecipientNotFound).Once()

	_, err := svc.Post(context.Background(), "stranger", "c1", "hi")
	assert.ErrorIs(t, err, apperrors.ErrNotConversationMember)
	msgs.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestEditRejectsNonSender(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	svc := newMessageService(msgs, new(mocks.ConversationRepositoryMock), new(mocks.DirectoryMock), new(mocks.NotifierMock))

	msgs.On("GetMessage", mock.Anything, "m1").Return(models.Message{ID: "m1", ConversationID: "c1", SenderID: strPtr("u2"), Content: "hi"}, nil).Once()

	_, err := svc.Edit(context.Background(), "u1", "m1", "changed")
	assert.ErrorIs(t, err, apperrors.ErrNotSender)
	msgs.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEditRejectsSystemMessage(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	svc := newMessageService(msgs, new(mocks.ConversationRepositoryMock), new(mocks.DirectoryMock), new(mocks.NotifierMock))

	msgs.On("GetMessage", mock.Anything, "m1").Return(models.Message{ID: "m1", ConversationID: "c1", Content: "g created this group"}, nil).Once()

	_, err := svc.Edit(context.Background(), "u1", "m1", "changed")
	assert.ErrorIs(t, err, apperrors.ErrNotSender)
}

func TestEditMarksEditedAndNotifies(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	dir := new(mocks.DirectoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newMessageService(msgs, convs, dir, notifier)

	msgs.On("GetMessage", mock.Anything, "m1").Return(models.Message{ID: "m1", ConversationID: "c1", SenderID: strPtr("u1"), Content: "old", CreatedAt: time.Now()}, nil).Once()
	msgs.On("UpdateContent", mock.Anything, "m1", "new", mock.Anything).Return(nil).Once()
	dir.On("FindByID", mock.Anything, "u1").Return(models.User{ID: "u1", Username: "alice"}, nil).Once()
	convs.On("RecipientUserIDs", mock.Anything, "c1").Return([]string{"u1", "u2"}, nil).Once()
	notifier.On("Notify", []string{"u2"}, services.EventMessageUpdated, mock.Anything).Once()

	dto, err := svc.Edit(context.Background(), "u1", "m1", "new")
	require.NoError(t, err)
	assert.Equal(t, "new", dto.Content)
	require.NotNil(t, dto.DateEdited)
	notifier.AssertExpectations(t)
}

func TestDeleteOwnMessageNotifies(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	dir := new(mocks.DirectoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newMessageService(msgs, convs, dir, notifier)

	msgs.On("GetMessage", mock.Anything, "m1").Return(models.Message{ID: "m1", ConversationID: "c1", SenderID: strPtr("u1"), Content: "bye", CreatedAt: time.Now()}, nil).Once()
	msgs.On("DeleteMessage", mock.Anything, "m1").Return(nil).Once()
	dir.On("FindByID", mock.Anything, "u1").Return(models.User{ID: "u1", Username: "alice"}, nil).Once()
	convs.On("RecipientUserIDs", mock.Anything, "c1").Return([]string{"u1", "u2"}, nil).Once()
	notifier.On("Notify", []string{"u2"}, services.EventMessageDeleted, mock.Anything).Once()

	_, err := svc.Delete(context.Background(), "u1", "m1")
	require.NoError(t, err)
	msgs.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestMarkSeenAdvancesMarker(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	dir := new(mocks.DirectoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newMessageService(msgs, convs, dir, notifier)

	msgs.On("GetMessage", mock.Anything, "m2").Return(models.Message{ID: "m2", ConversationID: "c1", SenderID: strPtr("u2"), CreatedAt: time.Now()}, nil).Once()
	convs.On("GetRecipient", mock.Anything, "c1", "u1").Return(models.Recipient{ID: "r1", LastSeenMessageID: strPtr("m1")}, nil).Once()
	convs.On("SetLastSeen", mock.Anything, "r1", "m2").Return(nil).Once()
	dir.On("FindByID", mock.Anything, "u2").Return(models.User{ID: "u2", Username: "bob"}, nil).Once()
	convs.On("RecipientUserIDs", mock.Anything, "c1").Return([]string{"u1", "u2"}, nil).Once()
	notifier.On("Notify", []string{"u2"}, services.EventMessageSeen, mock.Anything).Once()

	require.NoError(t, svc.MarkSeen(context.Background(), "u1", "m2"))
	convs.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestMarkSeenIsIdempotent(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	notifier := new(mocks.NotifierMock)
	svc := newMessageService(msgs, convs, new(mocks.DirectoryMock), notifier)

	msgs.On("GetMessage", mock.Anything, "m1").Return(models.Message{ID: "m1", ConversationID: "c1", SenderID: strPtr("u2")}, nil).Once()
	convs.On("GetRecipient", mock.Anything, "c1", "u1").Return(models.Recipient{ID: "r1", LastSeenMessageID: strPtr("m1")}, nil).Once()

	require.NoError(t, svc.MarkSeen(context.Background(), "u1", "m1"))
	convs.AssertNotCalled(t, "SetLastSeen", mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkSeenRequiresRecipiency(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	svc := newMessageService(msgs, convs, new(mocks.DirectoryMock), new(mocks.NotifierMock))

	msgs.On("GetMessage", mock.Anything, "m1").Return(models.Message{ID: "m1", ConversationID: "c1"}, nil).Once()
	convs.On("GetRecipient", mock.Anything, "c1", "stranger").Return(models.Recipient{}, repositories.ErrRecipientNotFound).Once()

	err := svc.MarkSeen(context.Background(), "stranger", "m1")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestHistoryPagesNewestFirst(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	dir := new(mocks.DirectoryMock)
	svc := newMessageService(msgs, convs, dir, new(mocks.NotifierMock))

	convs.On("GetConversation", mock.Anything, "c1").Return(models.Conversation{ID: "c1"}, nil).Once()
	convs.On("GetRecipient", mock.Anything, "c1", "u1").Return(models.Recipient{ID: "r1"}, nil).Once()
	page := []models.Message{
		{ID: "m3", ConversationID: "c1", SenderID: strPtr("u2"), Content: "newest", CreatedAt: time.Now()},
		{ID: "m2", ConversationID: "c1", Content: "system", CreatedAt: time.Now().Add(-time.Minute)},
	}
	msgs.On("ListPage", mock.Anything, "c1", 5, 20).Return(page, nil).Once()
	dir.On("BulkByIDs", mock.Anything, []string{"u2"}).Return([]models.User{{ID: "u2", Username: "bob"}}, nil).Once()

	dtos, err := svc.History(context.Background(), "u1", "c1", 5)
	require.NoError(t, err)
	require.Len(t, dtos, 2)
	assert.Equal(t, "bob", dtos[0].SenderName)
	assert.Equal(t, "", dtos[1].SenderName)
	msgs.AssertExpectations(t)
}

func TestHistoryClampsNegativeSkip(t *testing.T) {
	msgs := new(mocks.MessageRepositoryMock)
	convs := new(mocks.ConversationRepositoryMock)
	dir := new(mocks.DirectoryMock)
	svc := newMessageService(msgs, convs, dir, new(mocks.NotifierMock))

	convs.On("GetConversation", mock.Anything, "c1").Return(models.Conversation{ID: "c1"}, nil).Once()
	convs.On("GetRecipient", mock.Anything, "c1", "u1").Return(models.Recipient{ID: "r1"}, nil).Once()
	msgs.On("ListPage", mock.Anything, "c1", 0, 20).Return([]models.Message{}, nil).Once()
	dir.On("BulkByIDs", mock.Anything, []string{}).Return([]models.User{}, nil).Once()

	_, err := svc.History(context.Background(), "u1", "c1", -3)
	require.NoError(t, err)
	msgs.AssertExpectations(t)
}
