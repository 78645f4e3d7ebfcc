package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/samber/lo"

	"messenger-service/internal/blob"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/users"
)

// millis renders a timestamp the way every caller expects it: an
// epoch-millisecond string.
func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func millisPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := millis(*t)
	return &s
}

func messageDTO(msg models.Message, senderName string) models.MessageDTO {
	return models.MessageDTO{
		MessageID:         msg.ID,
		Content:           msg.Content,
		IsReferenceToFile: msg.IsReferenceToFile,
		Date:              millis(msg.CreatedAt),
		DateEdited:        millisPtr(msg.EditedAt),
		SenderName:        senderName,
	}
}

func lastMessageSummary(msg models.Message) *models.LastMessageSummary {
	return &models.LastMessageSummary{
		Content:           msg.Content,
		Date:              millis(msg.CreatedAt),
		IsReferenceToFile: msg.IsReferenceToFile,
	}
}

// senderNames resolves the distinct authors of a message batch in one
// directory call. System messages (nil sender) resolve to "".
func senderNames(ctx context.Context, dir users.Directory, msgs []models.Message) (map[string]string, error) {
	ids := lo.Uniq(lo.FilterMap(msgs, func(m models.Message, _ int) (string, bool) {
		if m.SenderID == nil {
			return "", false
		}
		return *m.SenderID, true
	}))

	list, err := dir.BulkByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return lo.SliceToMap(list, func(u models.User) (string, string) {
		return u.ID, u.Username
	}), nil
}

// avatarBase64 loads the avatar for a user or group conversation id.
// A missing avatar is not an error.
func avatarBase64(ctx context.Context, files repositories.FileRepository, blobs blob.Store, ownerID string) (*string, error) {
	_, err := files.GetImage(ctx, ownerID)
	if errors.Is(err, repositories.ErrImageNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	obj, err := blobs.Get(ctx, ownerID)
	if errors.Is(err, blob.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	encoded := base64.StdEncoding.EncodeToString(obj.Data)
	return &encoded, nil
}
