package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusMessageText is the chat line posted for a status change.
func StatusMessageText(to Status) string {
	return "Status changed to: " + to.Label()
}

// NewStatusMessage builds the chat record announcing event, authored by
// the acting profile.
func NewStatusMessage(event StatusChanged) Message {
	return Message{
		ID:        uuid.NewString(),
		OrderID:   event.OrderID,
		ProfileID: event.ActorID,
		Text:      StatusMessageText(event.To),
		CreatedAt: time.Now().UTC(),
	}
}
