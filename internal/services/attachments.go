package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/blob"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/users"
)

const (
	maxAttachmentBytes = 25 << 20
	maxAvatarBytes     = 4 << 20
)

var imageExtensions = map[string]struct{}{
	"JPG": {}, "JPEG": {}, "JPE": {}, "BMP": {}, "GIF": {}, "PNG": {},
}

// AttachmentService handles binary payloads: conversation file
// attachments and user/group avatars. Size caps are enforced before any
// persistence attempt.
type AttachmentService struct {
	convs  repositories.ConversationRepository
	files  repositories.FileRepository
	blobs  blob.Store
	dir    users.Directory
	fanout *FanOut
}

func NewAttachmentService(convs repositories.ConversationRepository, files repositories.FileRepository, blobs blob.Store, dir users.Directory, fanout *FanOut) *AttachmentService {
	return &AttachmentService{convs: convs, files: files, blobs: blobs, dir: dir, fanout: fanout}
}

// Upload stores an attachment and auto-generates its companion
// file-reference message, which flows through the normal fan-out path.
func (s *AttachmentService) Upload(ctx context.Context, actorID, conversationID, fileName string, data []byte) (models.MessageDTO, error) {
	if len(data) == 0 {
		return models.MessageDTO{}, apperrors.ErrNilPayload
	}
	if len(data) > maxAttachmentBytes {
		return models.MessageDTO{}, apperrors.ErrFileTooLarge
	}

	if _, err := s.convs.GetConversation(ctx, conversationID); err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return models.MessageDTO{}, apperrors.ErrConversationNotFound
		}
		return models.MessageDTO{}, apperrors.Persistence("load conversation", err)
	}
	if _, err := s.convs.GetRecipient(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, repositories.ErrRecipientNotFound) {
			return models.MessageDTO{}, apperrors.ErrNotConversationMember
		}
		return models.MessageDTO{}, apperrors.Persistence("load recipient", err)
	}

	fileID := uuid.NewString()
	if err := s.blobs.Put(ctx, fileID, fileName, data); err != nil {
		return models.MessageDTO{}, apperrors.Persistence("store attachment", err)
	}

	meta := models.FileMeta{ID: fileID, ConversationID: conversationID, FileName: fileName}
	msg := models.Message{
		ID:                uuid.NewString(),
		ConversationID:    conversationID,
		SenderID:          &actorID,
		Content:           fmt.Sprintf("%s,%s", fileName, fileID),
		IsReferenceToFile: true,
		CreatedAt:         time.Now(),
	}
	created, err := s.files.CreateAttachment(ctx, meta, msg)
	if err != nil {
		if cleanupErr := s.blobs.Delete(ctx, fileID); cleanupErr != nil {
			log.Printf("blob cleanup for file=%s failed: %v", fileID, cleanupErr)
		}
		return models.MessageDTO{}, apperrors.Persistence("create attachment", err)
	}

	senderName := ""
	if sender, err := s.dir.FindByID(ctx, actorID); err == nil {
		senderName = sender.Username
	} else if !errors.Is(err, users.ErrUserNotFound) {
		return models.MessageDTO{}, apperrors.Persistence("resolve sender", err)
	}

	dto := messageDTO(created, senderName)
	s.fanout.Push(ctx, conversationID, EventMessage, dto, actorID)
	return dto, nil
}

// Download returns an attachment to a conversation member, payload
// base64-encoded, name and extension split apart.
func (s *AttachmentService) Download(ctx context.Context, actorID, fileID string) (models.FileDTO, error) {
	meta, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, repositories.ErrFileNotFound) {
			return models.FileDTO{}, apperrors.ErrFileNotFound
		}
		return models.FileDTO{}, apperrors.Persistence("load file", err)
	}

	if _, err := s.convs.GetRecipient(ctx, meta.ConversationID, actorID); err != nil {
		if errors.Is(err, repositories.ErrRecipientNotFound) {
			return models.FileDTO{}, apperrors.ErrFileInaccessible
		}
		return models.FileDTO{}, apperrors.Persistence("load recipient", err)
	}

	obj, err := s.blobs.Get(ctx, fileID)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return models.FileDTO{}, apperrors.ErrFileNotFound
		}
		return models.FileDTO{}, apperrors.Persistence("load attachment", err)
	}

	name, ext := splitFileName(meta.FileName)
	return models.FileDTO{
		FileName:      name,
		FileExtension: ext,
		Data:          base64.StdEncoding.EncodeToString(obj.Data),
	}, nil
}

// SetUserAvatar replaces the caller's avatar. Re-uploading the same
// bytes is a no-op success, never an error.
func (s *AttachmentService) SetUserAvatar(ctx context.Context, actorID, fileName string, data []byte) error {
	if err := validateAvatar(fileName, data); err != nil {
		return err
	}
	return s.setAvatar(ctx, actorID, fileName, data)
}

// SetGroupAvatar replaces a group's avatar; the actor must be a member
// of the group.
func (s *AttachmentService) SetGroupAvatar(ctx context.Context, actorID, conversationID, fileName string, data []byte) error {
	if err := validateAvatar(fileName, data); err != nil {
		return err
	}

	conv, err := s.convs.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return apperrors.ErrConversationNotFound
		}
		return apperrors.Persistence("load conversation", err)
	}
	if !conv.IsGroup {
		return apperrors.ErrNotAGroup
	}
	if _, err := s.convs.GetRecipient(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, repositories.ErrRecipientNotFound) {
			return apperrors.ErrNotConversationMember
		}
		return apperrors.Persistence("load recipient", err)
	}

	return s.setAvatar(ctx, conversationID, fileName, data)
}

// Avatar returns the base64 avatar for a user or group conversation
// id, or nil when none is set.
func (s *AttachmentService) Avatar(ctx context.Context, ownerID string) (*string, error) {
	image, err := avatarBase64(ctx, s.files, s.blobs, ownerID)
	if err != nil {
		return nil, apperrors.Persistence("load avatar", err)
	}
	return image, nil
}

func (s *AttachmentService) setAvatar(ctx context.Context, ownerID, fileName string, data []byte) error {
	if err := s.files.UpsertImage(ctx, ownerID, fileName); err != nil {
		return apperrors.Persistence("save image", err)
	}
	if err := s.blobs.Put(ctx, ownerID, fileName, data); err != nil {
		return apperrors.Persistence("store image", err)
	}
	return nil
}

func validateAvatar(fileName string, data []byte) error {
	if len(data) == 0 {
		return apperrors.ErrNilPayload
	}
	_, ext := splitFileName(fileName)
	if _, ok := imageExtensions[strings.ToUpper(ext)]; !ok {
		return apperrors.ErrNotAnImage
	}
	if len(data) > maxAvatarBytes {
		return apperrors.ErrFileTooLarge
	}
	return nil
}

func splitFileName(fileName string) (name, extension string) {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 {
		return fileName, ""
	}
	return fileName[:idx], fileName[idx+1:]
}
