package services

import (
	"testing"
	"time"

	"github.com/driftchat/chat_backend/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUserMessage(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()

	withSender := models.Message{
		SenderID: viewer,
		Sender:   &models.UserProfile{ID: viewer},
	}
	assert.True(t, IsUserMessage(withSender, viewer))

	fromOther := models.Message{
		SenderID: other,
		Sender:   &models.UserProfile{ID: other},
	}
	assert.False(t, IsUserMessage(fromOther, viewer))

	// Sender not preloaded: fall back to the foreign key.
	fkOnly := models.Message{SenderID: viewer}
	assert.True(t, IsUserMessage(fkOnly, viewer))

	// No sender at all degrades to false instead of panicking.
	var orphan models.Message
	assert.False(t, IsUserMessage(orphan, viewer))
	assert.False(t, IsUserMessage(orphan, uuid.Nil))
}

func TestToDisplayMessagesSortsByCreatedAt(t *testing.T) {
	viewer := uuid.New()
	base := time.Now()

	messages := []models.Message{
		{ID: uuid.New(), Content: "third", SenderID: viewer, CreatedAt: base.Add(2 * time.Second)},
		{ID: uuid.New(), Content: "first", SenderID: uuid.New(), CreatedAt: base},
		{ID: uuid.New(), Content: "second", SenderID: viewer, CreatedAt: base.Add(time.Second)},
	}

	display := ToDisplayMessages(messages, viewer)
	require.Len(t, display, 3)
	assert.Equal(t, "first", display[0].Text)
	assert.Equal(t, "second", display[1].Text)
	assert.Equal(t, "third", display[2].Text)

	assert.False(t, display[0].IsUser)
	assert.True(t, display[1].IsUser)
	assert.True(t, display[2].IsUser)

	// Input order is left untouched.
	assert.Equal(t, "third", messages[0].Content)
}

func TestToDisplayMessagesIsIdempotent(t *testing.T) {
	viewer := uuid.New()
	messages := []models.Message{
		{ID: uuid.New(), Content: "b", SenderID: viewer, CreatedAt: time.Now().Add(time.Second)},
		{ID: uuid.New(), Content: "a", SenderID: uuid.New(), CreatedAt: time.Now()},
	}

	first := ToDisplayMessages(messages, viewer)
	second := ToDisplayMessages(messages, viewer)
	assert.Equal(t, first, second)
}

func TestToDisplayMessagesEmptyInput(t *testing.T) {
	display := ToDisplayMessages(nil, uuid.New())
	assert.NotNil(t, display)
	assert.Empty(t, display)
}
