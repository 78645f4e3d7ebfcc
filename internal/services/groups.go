package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/blob"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/users"
)

const (
	defaultGroupTitle   = "New group conversation"
	minimumGroupMembers = 2
)

// GroupService runs the group workflow: creation, rename, membership
// changes and the group projections. Structural events are announced
// through system messages fanned out like any other message.
type GroupService struct {
	convs  repositories.ConversationRepository
	msgs   repositories.MessageRepository
	files  repositories.FileRepository
	blobs  blob.Store
	dir    users.Directory
	fanout *FanOut
}

func NewGroupService(convs repositories.ConversationRepository, msgs repositories.MessageRepository, files repositories.FileRepository, blobs blob.Store, dir users.Directory, fanout *FanOut) *GroupService {
	return &GroupService{convs: convs, msgs: msgs, files: files, blobs: blobs, dir: dir, fanout: fanout}
}

// Create builds a group conversation for the named recipients. The
// actor is added implicitly when absent. The conversation, its
// recipients and the creation message are committed atomically; only
// then is the creation message fanned out.
func (s *GroupService) Create(ctx context.Context, actorID string, title *string, recipients []string) (models.GroupDTO, error) {
	actor, err := s.dir.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return models.GroupDTO{}, apperrors.ErrUserNotFound
		}
		return models.GroupDTO{}, apperrors.Persistence("resolve user", err)
	}
	if !lo.Contains(recipients, actor.Username) {
		recipients = append(recipients, actor.Username)
	}

	if len(lo.Uniq(recipients)) != len(recipients) {
		return models.GroupDTO{}, apperrors.ErrDuplicateRecipient
	}
	if len(recipients) < minimumGroupMembers {
		return models.GroupDTO{}, apperrors.ErrInsufficientMembers
	}

	memberIDs := make([]string, 0, len(recipients))
	for _, username := range recipients {
		member, err := s.dir.FindByHandle(ctx, username)
		if err != nil {
			if errors.Is(err, users.ErrUserNotFound) {
				return models.GroupDTO{}, apperrors.NotFound(fmt.Sprintf("user %s not found", username))
			}
			return models.GroupDTO{}, apperrors.Persistence("resolve user", err)
		}
		memberIDs = append(memberIDs, member.ID)
	}

	groupTitle := defaultGroupTitle
	if title != nil && *title != "" {
		groupTitle = *title
	}

	creation := models.Message{
		ID:        uuid.NewString(),
		Content:   fmt.Sprintf("%s created this group conversation with %d recipients.", actor.DisplayName, len(recipients)),
		CreatedAt: time.Now(),
	}
	conv, err := s.convs.CreateGroup(ctx, groupTitle, memberIDs, creation)
	if err != nil {
		return models.GroupDTO{}, apperrors.Persistence("create group", err)
	}

	creation.ConversationID = conv.ID
	s.fanout.Push(ctx, conv.ID, EventMessage, messageDTO(creation, ""), actorID)
	return s.groupDTO(ctx, conv)
}

// Rename sets a new title and announces it.
func (s *GroupService) Rename(ctx context.Context, actorID, conversationID, title string) error {
	if title == "" {
		return apperrors.ErrMissingTitle
	}

	conv, err := s.groupForMember(ctx, conversationID, actorID)
	if err != nil {
		return err
	}

	if err := s.convs.Rename(ctx, conv.ID, title); err != nil {
		return apperrors.Persistence("rename group", err)
	}

	actor, err := s.dir.FindByID(ctx, actorID)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		return apperrors.Persistence("resolve user", err)
	}
	return s.postSystem(ctx, conv.ID, fmt.Sprintf("%s has renamed the group to %s.", actor.DisplayName, title), actorID)
}

// AddRecipient adds the named user to the group and announces it.
func (s *GroupService) AddRecipient(ctx context.Context, actorID, conversationID, username string) error {
	conv, err := s.groupForMember(ctx, conversationID, actorID)
	if err != nil {
		return err
	}

	target, err := s.dir.FindByHandle(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Persistence("resolve user", err)
	}

	if _, err := s.convs.GetRecipient(ctx, conv.ID, target.ID); err == nil {
		return apperrors.ErrAlreadyMember
	} else if !errors.Is(err, repositories.ErrRecipientNotFound) {
		return apperrors.Persistence("load recipient", err)
	}

	if _, err := s.convs.AddRecipient(ctx, conv.ID, target.ID); err != nil {
		return apperrors.Persistence("add recipient", err)
	}

	actor, err := s.dir.FindByID(ctx, actorID)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		return apperrors.Persistence("resolve user", err)
	}
	return s.postSystem(ctx, conv.ID, fmt.Sprintf("%s has added %s to group.", actor.DisplayName, target.DisplayName), actorID)
}

// RemoveRecipient drops the named user from the group. Emptying the
// recipient set dissolves the conversation entirely instead of posting
// a departure message; otherwise the removal is announced to the
// remaining members.
func (s *GroupService) RemoveRecipient(ctx context.Context, actorID, conversationID, username string) error {
	conv, err := s.groupForMember(ctx, conversationID, actorID)
	if err != nil {
		return err
	}

	target, err := s.dir.FindByHandle(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Persistence("resolve user", err)
	}

	dissolved, fileIDs, err := s.convs.RemoveRecipient(ctx, conv.ID, target.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecipientNotFound) {
			return apperrors.ErrNotGroupMember
		}
		return apperrors.Persistence("remove recipient", err)
	}

	if dissolved {
		s.reclaimBlobs(ctx, append(fileIDs, conv.ID))
		return nil
	}

	actor, err := s.dir.FindByID(ctx, actorID)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		return apperrors.Persistence("resolve user", err)
	}
	return s.postSystem(ctx, conv.ID, fmt.Sprintf("%s has removed %s from group.", actor.DisplayName, target.DisplayName), actorID)
}

// ListGroups projects every group conversation the actor belongs to.
func (s *GroupService) ListGroups(ctx context.Context, actorID string) ([]models.GroupDTO, error) {
	groups, err := s.convs.ListGroupsForUser(ctx, actorID)
	if err != nil {
		return nil, apperrors.Persistence("list groups", err)
	}

	dtos := make([]models.GroupDTO, 0, len(groups))
	for _, conv := range groups {
		dto, err := s.groupDTO(ctx, conv)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// ListMembers projects the recipient set of a group the actor belongs
// to, including everyone's read markers.
func (s *GroupService) ListMembers(ctx context.Context, actorID, conversationID string) ([]models.MemberDTO, error) {
	conv, err := s.groupForMember(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}

	recipients, err := s.convs.ListRecipients(ctx, conv.ID)
	if err != nil {
		return nil, apperrors.Persistence("list recipients", err)
	}

	userList, err := s.dir.BulkByIDs(ctx, lo.Map(recipients, func(r models.Recipient, _ int) string { return r.UserID }))
	if err != nil {
		return nil, apperrors.Persistence("resolve users", err)
	}
	byID := lo.SliceToMap(userList, func(u models.User) (string, models.User) { return u.ID, u })

	members := make([]models.MemberDTO, 0, len(recipients))
	for _, rec := range recipients {
		user := byID[rec.UserID]
		image, err := avatarBase64(ctx, s.files, s.blobs, rec.UserID)
		if err != nil {
			return nil, apperrors.Persistence("load avatar", err)
		}
		members = append(members, models.MemberDTO{
			Username:          user.Username,
			DisplayName:       user.DisplayName,
			Image:             image,
			LastSeenMessageID: rec.LastSeenMessageID,
		})
	}
	return members, nil
}

// groupForMember loads a conversation and verifies it is a group the
// actor belongs to.
func (s *GroupService) groupForMember(ctx context.Context, conversationID, actorID string) (models.Conversation, error) {
	conv, err := s.convs.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return models.Conversation{}, apperrors.ErrConversationNotFound
		}
		return models.Conversation{}, apperrors.Persistence("load conversation", err)
	}
	if !conv.IsGroup {
		return models.Conversation{}, apperrors.ErrNotAGroup
	}
	if _, err := s.convs.GetRecipient(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, repositories.ErrRecipientNotFound) {
			return models.Conversation{}, apperrors.ErrNotConversationMember
		}
		return models.Conversation{}, apperrors.Persistence("load recipient", err)
	}
	return conv, nil
}

// postSystem appends a system message (no sender) and fans it out to
// everyone but the actor.
func (s *GroupService) postSystem(ctx context.Context, conversationID, content, actorID string) error {
	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	created, err := s.msgs.CreateMessage(ctx, msg)
	if err != nil {
		return apperrors.Persistence("create system message", err)
	}
	s.fanout.Push(ctx, conversationID, EventMessage, messageDTO(created, ""), actorID)
	return nil
}

func (s *GroupService) groupDTO(ctx context.Context, conv models.Conversation) (models.GroupDTO, error) {
	recipients, err := s.convs.ListRecipients(ctx, conv.ID)
	if err != nil {
		return models.GroupDTO{}, apperrors.Persistence("list recipients", err)
	}

	userList, err := s.dir.BulkByIDs(ctx, lo.Map(recipients, func(r models.Recipient, _ int) string { return r.UserID }))
	if err != nil {
		return models.GroupDTO{}, apperrors.Persistence("resolve users", err)
	}

	image, err := avatarBase64(ctx, s.files, s.blobs, conv.ID)
	if err != nil {
		return models.GroupDTO{}, apperrors.Persistence("load avatar", err)
	}

	count, err := s.msgs.CountMessages(ctx, conv.ID)
	if err != nil {
		return models.GroupDTO{}, apperrors.Persistence("count messages", err)
	}

	title := ""
	if conv.Title != nil {
		title = *conv.Title
	}
	dto := models.GroupDTO{
		ID:           conv.ID,
		Title:        title,
		Recipients:   lo.Map(userList, func(u models.User, _ int) string { return u.Username }),
		Image:        image,
		MessageCount: count,
	}

	last, err := s.msgs.LastMessage(ctx, conv.ID)
	if err == nil {
		dto.LastMessage = lastMessageSummary(last)
	} else if !errors.Is(err, repositories.ErrMessageNotFound) {
		return models.GroupDTO{}, apperrors.Persistence("load last message", err)
	}

	return dto, nil
}

func (s *GroupService) reclaimBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			log.Printf("blob cleanup for key=%s failed: %v", key, err)
		}
	}
}
