package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/users"
)

const historyPageSize = 20

// MessageService is the message protocol engine: post, edit, delete,
// seen and history. Every mutation is committed before its event is
// fanned out, so a client that receives a push and immediately
// re-queries observes the new state.
type MessageService struct {
	msgs   repositories.MessageRepository
	convs  repositories.ConversationRepository
	dir    users.Directory
	fanout *FanOut
}

func NewMessageService(msgs repositories.MessageRepository, convs repositories.ConversationRepository, dir users.Directory, fanout *FanOut) *MessageService {
	return &MessageService{msgs: msgs, convs: convs, dir: dir, fanout: fanout}
}

// Post appends a text message to the conversation and notifies every
// other recipient.
func (s *MessageService) Post(ctx context.Context, actorID, conversationID, content string) (models.MessageDTO, error) {
	if content == "" {
		return models.MessageDTO{}, apperrors.ErrEmptyContent
	}

	if err := s.requireMembership(ctx, conversationID, actorID); err != nil {
		return models.MessageDTO{}, err
	}

	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       &actorID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	created, err := s.msgs.CreateMessage(ctx, msg)
	if err != nil {
		return models.MessageDTO{}, apperrors.Persistence("create message", err)
	}

	dto, err := s.toDTO(ctx, created)
	if err != nil {
		return models.MessageDTO{}, err
	}
	s.fanout.Push(ctx, conversationID, EventMessage, dto, actorID)
	return dto, nil
}

// Edit replaces the content of the actor's own message and marks it
// edited.
func (s *MessageService) Edit(ctx context.Context, actorID, messageID, content string) (models.MessageDTO, error) {
	if content == "" {
		return models.MessageDTO{}, apperrors.ErrEmptyContent
	}

	msg, err := s.getOwnMessage(ctx, actorID, messageID)
	if err != nil {
		return models.MessageDTO{}, err
	}

	now := time.Now()
	if err := s.msgs.UpdateContent(ctx, messageID, content, now); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.MessageDTO{}, apperrors.ErrMessageNotFound
		}
		return models.MessageDTO{}, apperrors.Persistence("update message", err)
	}

	msg.Content = content
	msg.EditedAt = &now
	dto, err := s.toDTO(ctx, msg)
	if err != nil {
		return models.MessageDTO{}, err
	}
	s.fanout.Push(ctx, msg.ConversationID, EventMessageUpdated, dto, actorID)
	return dto, nil
}

// Delete removes the actor's own message entirely and pushes the
// removed message's projection so clients can reconcile.
func (s *MessageService) Delete(ctx context.Context, actorID, messageID string) (models.MessageDTO, error) {
	msg, err := s.getOwnMessage(ctx, actorID, messageID)
	if err != nil {
		return models.MessageDTO{}, err
	}

	if err := s.msgs.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.MessageDTO{}, apperrors.ErrMessageNotFound
		}
		return models.MessageDTO{}, apperrors.Persistence("delete message", err)
	}

	dto, err := s.toDTO(ctx, msg)
	if err != nil {
		return models.MessageDTO{}, err
	}
	s.fanout.Push(ctx, msg.ConversationID, EventMessageDeleted, dto, actorID)
	return dto, nil
}

// MarkSeen advances the caller's read-receipt marker to the given
// message. Marking the same message twice is a silent no-op with no
// second fan-out.
func (s *MessageService) MarkSeen(ctx context.Context, actorID, messageID string) error {
	msg, err := s.msgs.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return apperrors.ErrMessageNotFound
		}
		return apperrors.Persistence("load message", err)
	}

	rec, err := s.convs.GetRecipient(ctx, msg.ConversationID, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecipientNotFound) {
			return apperrors.NotFound("you're not a recipient of this conversation")
		}
		return apperrors.Persistence("load recipient", err)
	}

	if rec.LastSeenMessageID != nil && *rec.LastSeenMessageID == messageID {
		return nil
	}

	if err := s.convs.SetLastSeen(ctx, rec.ID, messageID); err != nil {
		return apperrors.Persistence("update last seen", err)
	}

	dto, err := s.toDTO(ctx, msg)
	if err != nil {
		return err
	}
	s.fanout.Push(ctx, msg.ConversationID, EventMessageSeen, dto, actorID)
	return nil
}

// History returns up to 20 messages older than the page marker (the
// number of newest messages to skip), most recent first.
func (s *MessageService) History(ctx context.Context, actorID, conversationID string, skip int) ([]models.MessageDTO, error) {
	if skip < 0 {
		skip = 0
	}

	if err := s.requireMembership(ctx, conversationID, actorID); err != nil {
		return nil, err
	}

	page, err := s.msgs.ListPage(ctx, conversationID, skip, historyPageSize)
	if err != nil {
		return nil, apperrors.Persistence("load history", err)
	}

	names, err := senderNames(ctx, s.dir, page)
	if err != nil {
		return nil, apperrors.Persistence("resolve senders", err)
	}

	dtos := make([]models.MessageDTO, 0, len(page))
	for _, msg := range page {
		name := ""
		if msg.SenderID != nil {
			name = names[*msg.SenderID]
		}
		dtos = append(dtos, messageDTO(msg, name))
	}
	return dtos, nil
}

func (s *MessageService) requireMembership(ctx context.Context, conversationID, actorID string) error {
	if _, err := s.convs.GetConversation(ctx, conversationID); err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return apperrors.ErrConversationNotFound
		}
		return apperrors.Persistence("load conversation", err)
	}
	if _, err := s.convs.GetRecipient(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, repositories.ErrRecipientNotFound) {
			return apperrors.ErrNotConversationMember
		}
		return apperrors.Persistence("load recipient", err)
	}
	return nil
}

func (s *MessageService) getOwnMessage(ctx context.Context, actorID, messageID string) (models.Message, error) {
	msg, err := s.msgs.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, apperrors.ErrMessageNotFound
		}
		return models.Message{}, apperrors.Persistence("load message", err)
	}
	if !msg.SentBy(actorID) {
		return models.Message{}, apperrors.ErrNotSender
	}
	return msg, nil
}

func (s *MessageService) toDTO(ctx context.Context, msg models.Message) (models.MessageDTO, error) {
	name := ""
	if msg.SenderID != nil {
		sender, err := s.dir.FindByID(ctx, *msg.SenderID)
		if err != nil && !errors.Is(err, users.ErrUserNotFound) {
			return models.MessageDTO{}, apperrors.Persistence("resolve sender", err)
		}
		name = sender.Username
	}
	return messageDTO(msg, name), nil
}
