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

type groupFixture struct {
	convs    *mocks.ConversationRepositoryMock
	msgs     *mocks.MessageRepositoryMock
	files    *mocks.FileRepositoryMock
	blobs    *mocks.BlobStoreMock
	dir      *mocks.DirectoryMock
	notifier *mocks.NotifierMock
	svc      *services.GroupService
}

func newGroupFixture() *groupFixture {
	f := &groupFixture{
		convs:    new(mocks.ConversationRepositoryMock),
		msgs:     new(mocks.MessageRepositoryMock),
		files:    new(mocks.FileRepositoryMock),
		blobs:    new(mocks.BlobStoreMock),
		dir:      new(mocks.DirectoryMock),
		notifier: new(mocks.NotifierMock),
	}
	fanout := services.NewFanOut(f.convs, f.notifier)
	f.svc = services.NewGroupService(f.convs, f.msgs, f.files, f.blobs, f.dir, fanout)
	return f
}

// expectGroup wires the calls groupForMember makes on every membership
// checked operation.
func (f *groupFixture) expectGroup(conversationID, actorID string, title string) {
	f.convs.On("GetConversation", mock.Anything, conversationID).
		Return(models.Conversation{ID: conversationID, Title: &title, IsGroup: true}, nil).Once()
	f.convs.On("GetRecipient", mock.Anything, conversationID, actorID).
		Return(models.Recipient{ID: "r-" + actorID, ConversationID: conversationID, UserID: actorID}, nil).Once()
}

func TestCreateGroupRejectsDuplicates(t *testing.T) {
	f := newGroupFixture()
	f.dir.On("FindByID", mock.Anything, "u1").Return(models.User{ID: "u1", Username: "alice", DisplayName: "Alice"}, nil).Once()

	_, err := f.svc.Create(context.Background(), "u1", nil, []string{"bob", "bob"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateRecipient)
	f.convs.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateGroupNeedsTwoRecipients(t *testing.T) {
	f := newGroupFixture()
	f.dir.On("FindByID", mock.Anything, "u1").Return(models.User{ID: "u1", Username: "alice", DisplayName: "Alice"}, nil).Once()

	// The actor alone is not a group.
	_, err := f.svc.Create(context.Background(), "u1", nil, []string{"alice"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientMembers)
}

func TestCreateGroupDefaultsTitleAndAnnounces(t *testing.T) {
	f := newGroupFixture()
	f.dir.On("FindByID", mock.Anything, "u1").Return(models.User{ID: "u1", Username: "alice", DisplayName: "Alice"}, nil).Once()
	f.dir.On("FindByHandle", mock.Anything, "bob").Return(models.User{ID: "u2", Username: "bob", DisplayName: "Bob"}, nil).Once()
	f.dir.On("FindByHandle", mock.Anything, "alice").Return(models.User{ID: "u1", Username: "alice", DisplayName: "Alice"}, nil).Once()

	title := "New group conversation"
	f.convs.On("CreateGroup", mock.Anything, title, []string{"u2", "u1"}, mock.MatchedBy(func(m models.Message) bool {
		return m.SenderID == nil && m.Content == "Alice created this group conversation with 2 recipients."
	})).Return(models.Conversation{ID: "g1", Title: &title, IsGroup: true}, nil).Once()

	f.convs.On("RecipientUserIDs", mock.Anything, "g1").Return([]string{"u1", "u2"}, nil).Once()
	f.notifier.On("Notify", []string{"u2"}, services.EventMessage, mock.Anything).Once()

	f.convs.On("ListRecipients", mock.Anything, "g1").Return([]models.Recipient{
		{ID: "r1", ConversationID: "g1", UserID: "u1"},
		{ID: "r2", ConversationID: "g1", UserID: "u2"},
	}, nil).Once()
	f.dir.On("BulkByIDs", mock.Anything, []string{"u1", "u2"}).Return([]models.User{
		{ID: "u1", Username: "alice"}, {ID: "u2", Username: "bob"},
	}, nil).Once()
	f.files.On("GetImage", mock.Anything, "g1").Return(models.ImageMeta{}, repositories.ErrImageNotFound).Once()
	f.msgs.On("CountMessages", mock.Anything, "g1").Return(1, nil).Once()
	f.msgs.On("LastMessage", mock.Anything, "g1").Return(models.Message{ID: "m1", ConversationID: "g1", Content: "Alice created this group conversation with 2 recipients.", CreatedAt: time.Now()}, nil).Once()

	dto, err := f.svc.Create(context.Background(), "u1", nil, []string{"bob"})
	require.NoError(t, err)
	assert.Equal(t, "New group conversation", dto.Title)
	assert.ElementsMatch(t, []string{"alice", "bob"}, dto.Recipients)
	assert.Equal(t, 1, dto.MessageCount)
	f.convs.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestRenameRequiresTitle(t *testing.T) {
	f := newGroupFixture()
	err := f.svc.Rename(context.Background(), "u1", "g1", "")
	assert.ErrorIs(t, err, apperrors.ErrMissingTitle)
	f.convs.AssertNotCalled(t, "Rename", mock.Anything, mock.Anything, mock.Anything)
}

func TestRenameAnnouncesNewTitle(t *testing.T) {
	f := newGroupFixture()
	f.expectGroup("g1", "u1", "Old")
	f.convs.On("Rename", mock.Anything, "g1", "Crew").Return(nil).Once()
	f.dir.On("FindByID", mock.Anything, "u1").Return(models.User{ID: "u1", Username: "alice", DisplayName: "Alice"}, nil).Once()
	f.msgs.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.SenderID == nil && m.Content == "Alice has renamed the group to Crew."
	})).Return(models.Message{ID: "m1", ConversationID: "g1", Content: "Alice has renamed the group to Crew.", CreatedAt: time.Now()}, nil).Once()
	f.convs.On("RecipientUserIDs", mock.Anything, "g1").Return([]string{"u1", "u2"}, nil).Once()
	f.notifier.On("Notify", []string{"u2"}, services.EventMessage, mock.Anything).Once()

	require.NoError(t, f.svc.Rename(context.Background(), "u1", "g1", "Crew"))
	f.msgs.AssertExpectations(t)
}

func TestRenameRejectsNonGroup(t *testing.T) {
	f := newGroupFixture()
	f.convs.On("GetConversation", mock.Anything, "c1").Return(models.Conversation{ID: "c1", IsGroup: false}, nil).Once()

	err := f.svc.Rename(context.Background(), "u1", "c1", "Crew")
	assert.ErrorIs(t, err, apperrors.ErrNotAGroup)
}

func TestAddRecipientAlreadyMember(t *testing.T) {
	f := newGroupFixture()
	f.expectGroup("g1", "u1", "Crew")
	f.dir.On("FindByHandle", mock.Anything, "bob").Return(models.User{ID: "u2", Username: "bob"}, nil).Once()
	f.convs.On("GetRecipient", mock.Anything, "g1", "u2").Return(models.Recipient{ID: "r2"}, nil).Once()

	err := f.svc.AddRecipient(context.Background(), "u1", "g1", "bob")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMember)
	f.convs.AssertNotCalled(t, "AddRecipient", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddRecipientAnnounces(t *testing.T) {
	f := newGroupFixture()
	f.expectGroup("g1", "u1", "Crew")
	f.dir.On("FindByHandle", mock.Anything, "bob").Return(models.User{ID: "u2", Username: "bob", DisplayName: "Bob"}, nil).Once()
	f.convs.On("GetRecipient", mock.Anything, "g1", "u2").Return(models.Recipient{}, repositories.ErrRecipientNotFound).Once()
	f.convs.On("AddRecipient", mock.Anything, "g1", "u2").Return(models.Recipient{ID: "r2", ConversationID: "g1", UserID: "u2"}, nil).Once()
	f.dir.On("FindByID", mock.Anything, "u1").Return(models.User{ID: "u1", Username: "alice", DisplayName: "Alice"}, nil).Once()
	f.msgs.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.SenderID == nil && m.Content == "Alice has added Bob to group."
	})).Return(models.Message{ID: "m1", ConversationID: "g1", CreatedAt: time.Now()}, nil).Once()
	f.convs.On("RecipientUserIDs", mock.Anything, "g1").Return([]string{"u1", "u2", "u3"}, nil).Once()
	f.notifier.On("Notify", []string{"u2", "u3"}, services.EventMessage, mock.Anything).Once()

	require.NoError(t, f.svc.AddRecipient(context.Background(), "u1", "g1", "bob"))
	f.notifier.AssertExpectations(t)
}

func TestRemoveRecipientAnnounces(t *testing.T) {
	f := newGroupFixture()
	f.expectGroup("g1", "u1", "Crew")
	f.dir.On("FindByHandle", mock.Anything, "bob").Return(models.User{ID: "u2", Username: "bob", DisplayName: "Bob"}, nil).Once()
	f.convs.On("RemoveRecipient", mock.Anything, "g1", "u2").Return(false, []string(nil), nil).Once()
	f.dir.On("FindByID", mock.Anything, "u1").Return(models.User{ID: "u1", Username: "alice", DisplayName: "Alice"}, nil).Once()
	f.msgs.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.SenderID == nil && m.Content == "Alice has removed Bob from group."
	})).Return(models.Message{ID: "m1", ConversationID: "g1", CreatedAt: time.Now()}, nil).Once()
	f.convs.On("RecipientUserIDs", mock.Anything, "g1").Return([]string{"u1", "u3"}, nil).Once()
	f.notifier.On("Notify", []string{"u3"}, services.EventMessage, mock.Anything).Once()

	require.NoError(t, f.svc.RemoveRecipient(context.Background(), "u1", "g1", "bob"))
	f.msgs.AssertExpectations(t)
}

func TestRemoveLastRecipientDissolvesGroup(t *testing.T) {
	f := newGroupFixture()
	f.expectGroup("g1", "u1", "Crew")
	f.dir.On("FindByHandle", mock.Anything, "alice").Return(models.User{ID: "u1", Username: "alice", DisplayName: "Alice"}, nil).Once()
	f.convs.On("RemoveRecipient", mock.Anything, "g1", "u1").Return(true, []string{"file1"}, nil).Once()
	f.blobs.On("Delete", mock.Anything, "file1").Return(nil).Once()
	f.blobs.On("Delete", mock.Anything, "g1").Return(nil).Once()

	require.NoError(t, f.svc.RemoveRecipient(context.Background(), "u1", "g1", "alice"))
	f.msgs.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	f.blobs.AssertExpectations(t)
}

func TestRemoveRecipientNotInGroup(t *testing.T) {
	f := newGroupFixture()
	f.expectGroup("g1", "u1", "Crew")
	f.dir.On("FindByHandle", mock.Anything, "bob").Return(models.User{ID: "u2", Username: "bob"}, nil).Once()
	f.convs.On("RemoveRecipient", mock.Anything, "g1", "u2").Return(false, []string(nil), repositories.ErrRecipientNotFound).Once()

	err := f.svc.RemoveRecipient(context.Background(), "u1", "g1", "bob")
	assert.ErrorIs(t, err, apperrors.ErrNotGroupMember)
}
