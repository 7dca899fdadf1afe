package handlers

import (
	"errors"
	"fmt"
	"log"

	config "github.com/driftchat/chat_backend/configs"
	"github.com/driftchat/chat_backend/database"
	"github.com/driftchat/chat_backend/models"
	"github.com/driftchat/chat_backend/notifications"
	"github.com/driftchat/chat_backend/services"
	"github.com/driftchat/chat_backend/utils"
	"github.com/driftchat/chat_backend/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type SendMessageRequest struct {
	ID               string `json:"id"` // optional client-chosen message id
	Content          string `json:"content" validate:"required"`
	ConversationName string `json:"conversation_name"`
	AsAssistant      bool   `json:"as_assistant"`
}

type EnsureConversationRequest struct {
	Name string `json:"name"`
}

func GetUserConversations(c *fiber.Ctx) error {
	userID, ok := authedUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	idFilter := uuid.Nil
	if rawID := c.Query("id"); rawID != "" {
		var err error
		idFilter, err = uuid.Parse(rawID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
		}
	}

	conversations, err := services.ListConversations(userID, c.Query("name"), idFilter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch conversations"})
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

// GetConversationMessages returns the display-shaped messages of one
// conversation. An id that matches nothing yields an empty list, not an
// error, so screens can render before their first send.
func GetConversationMessages(c *fiber.Ctx) error {
	userID, ok := authedUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	viewerID := uuid.Nil
	if profile, err := services.GetProfileByUserID(userID); err == nil {
		viewerID = profile.ID
	}

	allowed, err := services.CanViewConversation(conversationID, viewerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch messages"})
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a participant of this conversation"})
	}

	messages, err := services.GetConversationMessages(conversationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch messages"})
	}

	return c.JSON(fiber.Map{"messages": services.ToDisplayMessages(messages, viewerID)})
}

// EnsureConversation is the "screen opened a name-keyed thread" hook:
// find-or-create the caller's conversation for a well-known name before
// anything has been sent.
func EnsureConversation(c *fiber.Ctx) error {
	userID, ok := authedUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	profile, err := services.GetProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}

	var req EnsureConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	conversation, err := services.EnsureConversationByName(profile.ID, req.Name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to ensure conversation"})
	}

	return c.JSON(conversation)
}

// SendMessageToConversation appends to the conversation named in the
// route. If the id matches nothing, that exact id becomes the new
// conversation's primary key. The transaction is awaited: a rejected
// send surfaces as an error and nothing is broadcast.
func SendMessageToConversation(c *fiber.Ctx) error {
	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}
	return handleSend(c, conversationID)
}

// SendMessage appends to the caller's name-keyed conversation
// (defaulting to the well-known primary thread), bootstrapping it on
// first send.
func SendMessage(c *fiber.Ctx) error {
	return handleSend(c, uuid.Nil)
}

func handleSend(c *fiber.Ctx, conversationID uuid.UUID) error {
	userID, ok := authedUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	profile, err := services.GetProfileByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	senderID, status, errMsg := resolveSender(profile.ID, req.AsAssistant)
	if errMsg != "" {
		return c.Status(status).JSON(fiber.Map{"error": errMsg})
	}

	messageID, err := utils.ParseOrNewID(req.ID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message ID"})
	}

	message, err := services.SendMessage(services.SendCommand{
		MessageID:        messageID,
		SenderID:         senderID,
		InitiatorID:      profile.ID,
		ConversationID:   conversationID,
		ConversationName: req.ConversationName,
		Content:          req.Content,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmptyContent) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message content is empty"})
		}
		if errors.Is(err, services.ErrNotParticipant) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a participant of this conversation"})
		}
		log.Printf("Failed to send message for profile %s: %v", profile.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
	}

	deliverMessage(message)

	return c.Status(fiber.StatusCreated).JSON(message)
}

// resolveSender picks between the caller's own profile and the injected
// assistant identity.
func resolveSender(profileID uuid.UUID, asAssistant bool) (uuid.UUID, int, string) {
	if !asAssistant {
		return profileID, 0, ""
	}
	assistantID, err := config.AssistantProfileID()
	if err != nil {
		return uuid.Nil, fiber.StatusServiceUnavailable, "Assistant identity is not configured"
	}
	return assistantID, 0, ""
}

// deliverMessage fans a committed message out: live subscribers get a
// websocket push, offline participants get an email.
func deliverMessage(message *models.Message) {
	websocket.Broadcast <- message

	var sender models.UserProfile
	senderName := "Someone"
	if err := database.DB.First(&sender, "id = ?", message.SenderID).Error; err == nil {
		senderName = sender.DisplayName
	}

	var conversation models.Conversation
	conversationName := services.DefaultConversationName
	if err := database.DB.First(&conversation, "id = ?", message.ConversationID).Error; err == nil {
		conversationName = conversation.Name
	}

	var participants []models.UserProfile
	err := database.DB.
		Joins("JOIN conversation_participants cp ON cp.user_profile_id = user_profiles.id AND cp.conversation_id = ?", message.ConversationID).
		Preload("User").
		Find(&participants).Error
	if err != nil {
		log.Printf("Failed to load participants for notification: %v", err)
		return
	}

	for _, participant := range participants {
		if participant.ID == message.SenderID || websocket.IsOnline(participant.ID) {
			continue
		}
		go notifications.NotifyOfflineParticipant(
			participant.DisplayName,
			participant.User.Email,
			senderName,
			conversationName,
		)
	}
}

func ServeWs(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		log.Printf("WebSocket auth failed: invalid or missing auth message, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid token, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	rawUserID, ok := claims["user_id"].(string)
	if !ok {
		log.Printf("WebSocket auth failed: user_id claim missing or not a string")
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid user_id: %v", rawUserID)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}

	profile, err := services.GetProfileByUserID(userID)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Profile not found"})
		c.Close()
		return
	}

	client := &websocket.Client{ProfileID: profile.ID, Conn: c}
	websocket.Register <- client
	defer func() {
		websocket.Unregister <- client
		c.Close()
	}()

	_ = services.TouchPresence(profile.ID, false)

	for {
		var payload websocket.SendPayload
		if err := c.ReadJSON(&payload); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for client %s: %v", profile.ID, err)
			} else {
				log.Printf("WebSocket read error for client %s: %v", profile.ID, err)
			}
			break
		}

		if payload.Content == "" {
			// Bare typing notifications carry no content.
			_ = services.TouchPresence(profile.ID, payload.Typing)
			continue
		}

		conversationID := uuid.Nil
		if payload.ConversationID != "" {
			conversationID, err = uuid.Parse(payload.ConversationID)
			if err != nil {
				_ = c.WriteJSON(fiber.Map{"error": "Invalid conversation ID"})
				continue
			}
		}

		senderID, _, errMsg := resolveSender(profile.ID, payload.AsAssistant)
		if errMsg != "" {
			_ = c.WriteJSON(fiber.Map{"error": errMsg})
			continue
		}

		messageID, err := utils.ParseOrNewID(payload.ID)
		if err != nil {
			_ = c.WriteJSON(fiber.Map{"error": "Invalid message ID"})
			continue
		}

		message, err := services.SendMessage(services.SendCommand{
			MessageID:      messageID,
			SenderID:       senderID,
			InitiatorID:    profile.ID,
			ConversationID: conversationID,
			Content:        payload.Content,
		})
		if err != nil {
			log.Printf("Failed to save message for client %s: %v", profile.ID, err)
			_ = c.WriteJSON(fiber.Map{"error": "Failed to save message"})
			continue
		}

		_ = services.TouchPresence(profile.ID, false)
		deliverMessage(message)
	}
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
