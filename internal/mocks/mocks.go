package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/blob"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
	"messenger-service/internal/users"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	args := m.Called(ctx, id)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListRecipients(ctx context.Context, conversationID string) ([]models.Recipient, error) {
	args := m.Called(ctx, conversationID)
	var list []models.Recipient
	if val := args.Get(0); val != nil {
		list = val.([]models.Recipient)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) RecipientUserIDs(ctx context.Context, conversationID string) ([]string, error) {
	args := m.Called(ctx, conversationID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *ConversationRepositoryMock) GetRecipient(ctx context.Context, conversationID, userID string) (models.Recipient, error) {
	args := m.Called(ctx, conversationID, userID)
	var recipient models.Recipient
	if val := args.Get(0); val != nil {
		recipient = val.(models.Recipient)
	}
	return recipient, args.Error(1)
}

func (m *ConversationRepositoryMock) ListGroupsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) CreateGroup(ctx context.Context, title string, memberIDs []string, systemMessage models.Message) (models.Conversation, error) {
	args := m.Called(ctx, title, memberIDs, systemMessage)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) Rename(ctx context.Context, conversationID, title string) error {
	args := m.Called(ctx, conversationID, title)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) AddRecipient(ctx context.Context, conversationID, userID string) (models.Recipient, error) {
	args := m.Called(ctx, conversationID, userID)
	var recipient models.Recipient
	if val := args.Get(0); val != nil {
		recipient = val.(models.Recipient)
	}
	return recipient, args.Error(1)
}

func (m *ConversationRepositoryMock) RemoveRecipient(ctx context.Context, conversationID, userID string) (bool, []string, error) {
	args := m.Called(ctx, conversationID, userID)
	var fileIDs []string
	if val := args.Get(1); val != nil {
		fileIDs = val.([]string)
	}
	return args.Bool(0), fileIDs, args.Error(2)
}

func (m *ConversationRepositoryMock) DeleteConversation(ctx context.Context, conversationID string) ([]string, error) {
	args := m.Called(ctx, conversationID)
	var fileIDs []string
	if val := args.Get(0); val != nil {
		fileIDs = val.([]string)
	}
	return fileIDs, args.Error(1)
}

func (m *ConversationRepositoryMock) SetLastSeen(ctx context.Context, recipientID, messageID string) error {
	args := m.Called(ctx, recipientID, messageID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var created models.Message
	if val := args.Get(0); val != nil {
		created = val.(models.Message)
	}
	return created, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateContent(ctx context.Context, messageID, content string, editedAt time.Time) error {
	args := m.Called(ctx, messageID, content, editedAt)
	return args.Error(0)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListPage(ctx context.Context, conversationID string, skip, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, skip, limit)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) CountMessages(ctx context.Context, conversationID string) (int, error) {
	args := m.Called(ctx, conversationID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) LastMessage(ctx context.Context, conversationID string) (models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type FriendRepositoryMock struct {
	mock.Mock
}

func (m *FriendRepositoryMock) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) GetFriendByPair(ctx context.Context, userID, otherID string) (models.Friend, error) {
	args := m.Called(ctx, userID, otherID)
	var friend models.Friend
	if val := args.Get(0); val != nil {
		friend = val.(models.Friend)
	}
	return friend, args.Error(1)
}

func (m *FriendRepositoryMock) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	args := m.Called(ctx, userID)
	var list []models.Friend
	if val := args.Get(0); val != nil {
		list = val.([]models.Friend)
	}
	return list, args.Error(1)
}

func (m *FriendRepositoryMock) HasPendingRequest(ctx context.Context, userID, otherID string) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) CreateRequest(ctx context.Context, senderID, recipientID string) (models.FriendRequest, error) {
	args := m.Called(ctx, senderID, recipientID)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *FriendRepositoryMock) GetRequest(ctx context.Context, requestID string) (models.FriendRequest, error) {
	args := m.Called(ctx, requestID)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *FriendRepositoryMock) ListRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	args := m.Called(ctx, userID)
	var list []models.FriendRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendRequest)
	}
	return list, args.Error(1)
}

func (m *FriendRepositoryMock) DeleteRequest(ctx context.Context, requestID string) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

func (m *FriendRepositoryMock) AcceptRequest(ctx context.Context, requestID, person1ID, person2ID string) (models.Friend, models.Conversation, error) {
	args := m.Called(ctx, requestID, person1ID, person2ID)
	var friend models.Friend
	if val := args.Get(0); val != nil {
		friend = val.(models.Friend)
	}
	var conv models.Conversation
	if val := args.Get(1); val != nil {
		conv = val.(models.Conversation)
	}
	return friend, conv, args.Error(2)
}

type FileRepositoryMock struct {
	mock.Mock
}

func (m *FileRepositoryMock) CreateAttachment(ctx context.Context, meta models.FileMeta, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, meta, msg)
	var created models.Message
	if val := args.Get(0); val != nil {
		created = val.(models.Message)
	}
	return created, args.Error(1)
}

func (m *FileRepositoryMock) GetFile(ctx context.Context, fileID string) (models.FileMeta, error) {
	args := m.Called(ctx, fileID)
	var meta models.FileMeta
	if val := args.Get(0); val != nil {
		meta = val.(models.FileMeta)
	}
	return meta, args.Error(1)
}

func (m *FileRepositoryMock) UpsertImage(ctx context.Context, ownerID, fileName string) error {
	args := m.Called(ctx, ownerID, fileName)
	return args.Error(0)
}

func (m *FileRepositoryMock) GetImage(ctx context.Context, ownerID string) (models.ImageMeta, error) {
	args := m.Called(ctx, ownerID)
	var meta models.ImageMeta
	if val := args.Get(0); val != nil {
		meta = val.(models.ImageMeta)
	}
	return meta, args.Error(1)
}

type DirectoryMock struct {
	mock.Mock
}

func (m *DirectoryMock) FindByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *DirectoryMock) FindByHandle(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *DirectoryMock) BulkByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var list []models.User
	if val := args.Get(0); val != nil {
		list = val.([]models.User)
	}
	return list, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(userIDs []string, event string, payload any) {
	m.Called(userIDs, event, payload)
}

type BlobStoreMock struct {
	mock.Mock
}

func (m *BlobStoreMock) Put(ctx context.Context, key, fileName string, data []byte) error {
	args := m.Called(ctx, key, fileName, data)
	return args.Error(0)
}

func (m *BlobStoreMock) Get(ctx context.Context, key string) (blob.Object, error) {
	args := m.Called(ctx, key)
	var obj blob.Object
	if val := args.Get(0); val != nil {
		obj = val.(blob.Object)
	}
	return obj, args.Error(1)
}

func (m *BlobStoreMock) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *BlobStoreMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var (
	_ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
	_ repositories.MessageRepository      = (*MessageRepositoryMock)(nil)
	_ repositories.FriendRepository       = (*FriendRepositoryMock)(nil)
	_ repositories.FileRepository         = (*FileRepositoryMock)(nil)
	_ users.Directory                     = (*DirectoryMock)(nil)
	_ services.Notifier                   = (*NotifierMock)(nil)
	_ blob.Store                          = (*BlobStoreMock)(nil)
)
