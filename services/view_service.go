package services

import (
	"sort"
	"time"

	"github.com/driftchat/chat_backend/models"
	"github.com/google/uuid"
)

// DisplayMessage is the flat shape chat views render.
type DisplayMessage struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}

// ToDisplayMessages projects raw messages into display shape for the
// given viewer, sorted by creation time rather than arrival order. It
// is a pure function: mapping the same input twice yields identical
// output and the input slice is left untouched.
func ToDisplayMessages(messages []models.Message, viewerProfileID uuid.UUID) []DisplayMessage {
	display := make([]DisplayMessage, 0, len(messages))
	for _, m := range messages {
		display = append(display, DisplayMessage{
			ID:        m.ID,
			Text:      m.Content,
			IsUser:    IsUserMessage(m, viewerProfileID),
			Timestamp: m.CreatedAt,
		})
	}

	sort.SliceStable(display, func(i, j int) bool {
		return display[i].Timestamp.Before(display[j].Timestamp)
	})
	return display
}

// IsUserMessage reports whether the viewer authored the message. A
// message with no sender degrades to false instead of panicking.
func IsUserMessage(m models.Message, viewerProfileID uuid.UUID) bool {
	if m.Sender != nil {
		return m.Sender.ID == viewerProfileID
	}
	if m.SenderID == uuid.Nil || viewerProfileID == uuid.Nil {
		return false
	}
	return m.SenderID == viewerProfileID
}
