package services

import (
	"context"
	"log"

	"github.com/samber/lo"

	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
)

// Push event names, shared by websocket clients and the AMQP mirror.
const (
	EventMessage        = "message"
	EventMessageUpdated = "message_updated"
	EventMessageDeleted = "message_deleted"
	EventMessageSeen    = "message_seen"
)

// Notifier is the push-transport collaborator: best-effort,
// fire-and-forget delivery to every live connection of the given users.
type Notifier interface {
	Notify(userIDs []string, event string, payload any)
}

// FanOut computes the delivery set for a conversation event. The
// recipient set is read fresh on every push so concurrent membership
// changes are reflected, and the acting user is always excluded.
type FanOut struct {
	convs    repositories.ConversationRepository
	notifier Notifier
}

func NewFanOut(convs repositories.ConversationRepository, notifier Notifier) *FanOut {
	return &FanOut{convs: convs, notifier: notifier}
}

// Push never fails the originating mutation: delivery problems are
// logged and counted, nothing more.
func (f *FanOut) Push(ctx context.Context, conversationID, event string, payload any, actorID string) {
	userIDs, err := f.convs.RecipientUserIDs(ctx, conversationID)
	if err != nil {
		log.Printf("fanout: resolving recipients for conversation=%s failed: %v", conversationID, err)
		return
	}

	targets := lo.Without(userIDs, actorID)
	if len(targets) == 0 {
		return
	}

	observability.IncFanoutEvent(event)
	f.notifier.Notify(targets, event, payload)
}
