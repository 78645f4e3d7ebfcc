package services

import (
	"context"
	"errors"
	"log"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/blob"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/users"
)

// FriendService runs the friend workflow: request, accept, decline,
// remove, and the friend-list projection. Accepting a request is the
// only way a non-group conversation comes into existence.
type FriendService struct {
	friends repositories.FriendRepository
	convs   repositories.ConversationRepository
	msgs    repositories.MessageRepository
	files   repositories.FileRepository
	blobs   blob.Store
	dir     users.Directory
}

func NewFriendService(friends repositories.FriendRepository, convs repositories.ConversationRepository, msgs repositories.MessageRepository, files repositories.FileRepository, blobs blob.Store, dir users.Directory) *FriendService {
	return &FriendService{friends: friends, convs: convs, msgs: msgs, files: files, blobs: blobs, dir: dir}
}

// SendRequest creates a pending friend request towards the named user.
func (s *FriendService) SendRequest(ctx context.Context, actorID, username string) (models.FriendRequestDTO, error) {
	target, err := s.dir.FindByHandle(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return models.FriendRequestDTO{}, apperrors.NotFound("no such recipient")
		}
		return models.FriendRequestDTO{}, apperrors.Persistence("resolve user", err)
	}
	if target.ID == actorID {
		return models.FriendRequestDTO{}, apperrors.ErrSelfFriendRequest
	}

	alreadyFriends, err := s.friends.AreFriends(ctx, actorID, target.ID)
	if err != nil {
		return models.FriendRequestDTO{}, apperrors.Persistence("check friendship", err)
	}
	if alreadyFriends {
		return models.FriendRequestDTO{}, apperrors.ErrAlreadyFriends
	}

	pending, err := s.friends.HasPendingRequest(ctx, actorID, target.ID)
	if err != nil {
		return models.FriendRequestDTO{}, apperrors.Persistence("check pending requests", err)
	}
	if pending {
		return models.FriendRequestDTO{}, apperrors.ErrDuplicateRequest
	}

	req, err := s.friends.CreateRequest(ctx, actorID, target.ID)
	if err != nil {
		return models.FriendRequestDTO{}, apperrors.Persistence("create friend request", err)
	}
	return s.requestDTO(ctx, req, actorID)
}

// ListRequests returns every pending request the actor is part of,
// projected with the other party's display data.
func (s *FriendService) ListRequests(ctx context.Context, actorID string) ([]models.FriendRequestDTO, error) {
	reqs, err := s.friends.ListRequests(ctx, actorID)
	if err != nil {
		return nil, apperrors.Persistence("list friend requests", err)
	}

	dtos := make([]models.FriendRequestDTO, 0, len(reqs))
	for _, req := range reqs {
		dto, err := s.requestDTO(ctx, req, actorID)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// Accept turns a pending request into a friend link with a fresh
// two-party conversation. Only the request's recipient may accept.
func (s *FriendService) Accept(ctx context.Context, actorID, requestID string) (models.FriendDTO, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return models.FriendDTO{}, err
	}
	if req.RecipientID != actorID {
		return models.FriendDTO{}, apperrors.ErrNotRequestRecipient
	}

	friend, _, err := s.friends.AcceptRequest(ctx, req.ID, req.SenderID, req.RecipientID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return models.FriendDTO{}, apperrors.ErrRequestNotFound
		}
		return models.FriendDTO{}, apperrors.Persistence("accept friend request", err)
	}
	return s.friendDTO(ctx, friend, actorID)
}

// Decline removes a pending request; either party may do so.
func (s *FriendService) Decline(ctx context.Context, actorID, requestID string) error {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.SenderID != actorID && req.RecipientID != actorID {
		return apperrors.ErrNotRequestParty
	}

	if err := s.friends.DeleteRequest(ctx, req.ID); err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return apperrors.ErrRequestNotFound
		}
		return apperrors.Persistence("decline friend request", err)
	}
	return nil
}

// RemoveFriend deletes the friend link and cascades its conversation
// away, messages and files included.
func (s *FriendService) RemoveFriend(ctx context.Context, actorID, username string) error {
	other, err := s.dir.FindByHandle(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Persistence("resolve user", err)
	}

	friend, err := s.friends.GetFriendByPair(ctx, actorID, other.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrFriendNotFound) {
			return apperrors.ErrNotFriends
		}
		return apperrors.Persistence("load friend", err)
	}

	fileIDs, err := s.convs.DeleteConversation(ctx, friend.ConversationID)
	if err != nil {
		return apperrors.Persistence("remove friend", err)
	}
	s.reclaimBlobs(ctx, fileIDs)
	return nil
}

// ListFriends projects every friend of the actor with the linked
// conversation's id, the actor's own read marker and a summary of the
// newest message.
func (s *FriendService) ListFriends(ctx context.Context, actorID string) ([]models.FriendDTO, error) {
	list, err := s.friends.ListFriends(ctx, actorID)
	if err != nil {
		return nil, apperrors.Persistence("list friends", err)
	}

	dtos := make([]models.FriendDTO, 0, len(list))
	for _, friend := range list {
		dto, err := s.friendDTO(ctx, friend, actorID)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

func (s *FriendService) getRequest(ctx context.Context, requestID string) (models.FriendRequest, error) {
	req, err := s.friends.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return models.FriendRequest{}, apperrors.ErrRequestNotFound
		}
		return models.FriendRequest{}, apperrors.Persistence("load friend request", err)
	}
	return req, nil
}

func (s *FriendService) requestDTO(ctx context.Context, req models.FriendRequest, actorID string) (models.FriendRequestDTO, error) {
	otherID := req.SenderID
	if otherID == actorID {
		otherID = req.RecipientID
	}

	other, err := s.dir.FindByID(ctx, otherID)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		return models.FriendRequestDTO{}, apperrors.Persistence("resolve user", err)
	}

	image, err := avatarBase64(ctx, s.files, s.blobs, otherID)
	if err != nil {
		return models.FriendRequestDTO{}, apperrors.Persistence("load avatar", err)
	}

	return models.FriendRequestDTO{
		RequestID:   req.ID,
		DisplayName: other.DisplayName,
		Username:    other.Username,
		Image:       image,
		IsOutbound:  req.SenderID == actorID,
	}, nil
}

func (s *FriendService) friendDTO(ctx context.Context, friend models.Friend, actorID string) (models.FriendDTO, error) {
	otherID := friend.OtherOf(actorID)
	other, err := s.dir.FindByID(ctx, otherID)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		return models.FriendDTO{}, apperrors.Persistence("resolve user", err)
	}

	image, err := avatarBase64(ctx, s.files, s.blobs, otherID)
	if err != nil {
		return models.FriendDTO{}, apperrors.Persistence("load avatar", err)
	}

	count, err := s.msgs.CountMessages(ctx, friend.ConversationID)
	if err != nil {
		return models.FriendDTO{}, apperrors.Persistence("count messages", err)
	}

	dto := models.FriendDTO{
		Username:       other.Username,
		DisplayName:    other.DisplayName,
		Image:          image,
		ConversationID: friend.ConversationID,
		MessageCount:   count,
	}

	if rec, err := s.convs.GetRecipient(ctx, friend.ConversationID, actorID); err == nil {
		dto.LastSeenMessageID = rec.LastSeenMessageID
	} else if !errors.Is(err, repositories.ErrRecipientNotFound) {
		return models.FriendDTO{}, apperrors.Persistence("load recipient", err)
	}

	last, err := s.msgs.LastMessage(ctx, friend.ConversationID)
	if err == nil {
		dto.LastMessage = lastMessageSummary(last)
	} else if !errors.Is(err, repositories.ErrMessageNotFound) {
		return models.FriendDTO{}, apperrors.Persistence("load last message", err)
	}

	return dto, nil
}

func (s *FriendService) reclaimBlobs(ctx context.Context, fileIDs []string) {
	for _, id := range fileIDs {
		if err := s.blobs.Delete(ctx, id); err != nil {
			log.Printf("blob cleanup for file=%s failed: %v", id, err)
		}
	}
}
