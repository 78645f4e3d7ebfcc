package models

// MessageDTO is the wire shape of a message, shared by REST responses
// and websocket pushes. Timestamps are epoch-millisecond strings;
// DateEdited is nil until the first edit.
type MessageDTO struct {
	MessageID         string  `json:"messageId"`
	Content           string  `json:"content"`
	IsReferenceToFile bool    `json:"isReferenceToFile"`
	Date              string  `json:"date"`
	DateEdited        *string `json:"dateEdited"`
	SenderName        string  `json:"senderName"`
}

// LastMessageSummary is the most recent message of a conversation as it
// appears inside friend and group projections.
type LastMessageSummary struct {
	Content           string `json:"content"`
	Date              string `json:"date"`
	IsReferenceToFile bool   `json:"isReferenceToFile"`
}

type FriendDTO struct {
	Username          string              `json:"username"`
	DisplayName       string              `json:"displayName"`
	Image             *string             `json:"image"`
	ConversationID    string              `json:"conversationId"`
	MessageCount      int                 `json:"messageCount"`
	LastSeenMessageID *string             `json:"lastSeenMessageId"`
	LastMessage       *LastMessageSummary `json:"lastMessage,omitempty"`
}

type FriendRequestDTO struct {
	RequestID   string  `json:"requestId"`
	DisplayName string  `json:"displayName"`
	Username    string  `json:"username"`
	Image       *string `json:"image"`
	IsOutbound  bool    `json:"isOutbound"`
}

type GroupDTO struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Recipients   []string            `json:"recipients"`
	Image        *string             `json:"image"`
	MessageCount int                 `json:"messageCount"`
	LastMessage  *LastMessageSummary `json:"lastMessage,omitempty"`
}

// MemberDTO describes one recipient of a group conversation.
type MemberDTO struct {
	Username          string  `json:"username"`
	DisplayName       string  `json:"displayName"`
	Image             *string `json:"image"`
	LastSeenMessageID *string `json:"lastSeenMessageId"`
}

// FileDTO carries a downloaded attachment, payload base64-encoded.
type FileDTO struct {
	FileName      string `json:"fileName"`
	FileExtension string `json:"fileExtension"`
	Data          string `json:"data"`
}
