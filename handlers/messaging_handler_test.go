package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/driftchat/chat_backend/database"
	"github.com/driftchat/chat_backend/models"
	"github.com/driftchat/chat_backend/services"
	"github.com/driftchat/chat_backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var hubOnce sync.Once

func setupHandlerTest(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled :memory: database is a different database per
	// connection, so pin the pool to one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.UserAccount{},
		&models.UserProfile{},
		&models.Conversation{},
		&models.Message{},
		&models.UserConversationStatus{},
		&models.FileAsset{},
	))

	database.DB = db
	hubOnce.Do(func() { go websocket.RunHub() })
}

func createHandlerProfile(t *testing.T, displayName string) *models.UserProfile {
	t.Helper()

	account := models.UserAccount{
		Email:    displayName + "@test.local",
		Password: "hashed",
	}
	require.NoError(t, database.DB.Create(&account).Error)

	profile := models.UserProfile{
		UserID:      account.ID,
		DisplayName: displayName,
	}
	require.NoError(t, database.DB.Create(&profile).Error)
	return &profile
}

// handlerApp wires the messaging and status routes behind a stand-in
// auth layer that injects the given claims, the shape the jwt
// middleware leaves in Locals after signature verification.
func handlerApp(claims jwt.MapClaims) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", jwt.NewWithClaims(jwt.SigningMethodHS256, claims))
		return c.Next()
	})
	app.Get("/conversations", GetUserConversations)
	app.Get("/conversations/:conversationId/messages", GetConversationMessages)
	app.Post("/conversations/:conversationId/messages", SendMessageToConversation)
	app.Post("/messages", SendMessage)
	app.Put("/conversations/:conversationId/status", UpdateConversationStatus)
	app.Get("/conversations/:conversationId/status", GetConversationStatus)
	return app
}

func appForProfile(profile *models.UserProfile) *fiber.App {
	return handlerApp(jwt.MapClaims{"user_id": profile.UserID.String()})
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestResolveSenderDefaultsToCaller(t *testing.T) {
	profileID := uuid.New()

	senderID, status, errMsg := resolveSender(profileID, false)

	assert.Equal(t, profileID, senderID)
	assert.Zero(t, status)
	assert.Empty(t, errMsg)
}

func TestResolveSenderUsesConfiguredAssistant(t *testing.T) {
	assistantID := uuid.New()
	t.Setenv("ASSISTANT_PROFILE_ID", assistantID.String())

	senderID, status, errMsg := resolveSender(uuid.New(), true)

	assert.Equal(t, assistantID, senderID)
	assert.Zero(t, status)
	assert.Empty(t, errMsg)
}

func TestResolveSenderFailsClosedWhenAssistantUnconfigured(t *testing.T) {
	t.Setenv("ASSISTANT_PROFILE_ID", "")

	senderID, status, errMsg := resolveSender(uuid.New(), true)

	assert.Equal(t, uuid.Nil, senderID)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.NotEmpty(t, errMsg)
}

func TestAssistantSendSpeaksAsSeededIdentity(t *testing.T) {
	setupHandlerTest(t)
	assistantID := uuid.New()
	t.Setenv("ASSISTANT_PROFILE_ID", assistantID.String())
	database.SeedAssistant()

	caller := createHandlerProfile(t, "caller")
	app := appForProfile(caller)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/messages", `{"content":"hello from the other side","as_assistant":true}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var message models.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&message))
	assert.Equal(t, assistantID, message.SenderID)

	// The thread still belongs to the caller even when the assistant
	// speaks in it.
	allowed, err := services.CanViewConversation(message.ConversationID, caller.ID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAssistantSendRejectedWhenUnconfigured(t *testing.T) {
	setupHandlerTest(t)
	t.Setenv("ASSISTANT_PROFILE_ID", "")

	caller := createHandlerProfile(t, "caller")
	app := appForProfile(caller)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/messages", `{"content":"hi","as_assistant":true}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var messages int64
	require.NoError(t, database.DB.Model(&models.Message{}).Count(&messages).Error)
	assert.Equal(t, int64(0), messages)
}

func TestHandlersRejectMalformedUserIDClaim(t *testing.T) {
	setupHandlerTest(t)

	// A validly signed token can still carry a broken user_id claim;
	// it must come back as 401, never a panic.
	for name, claims := range map[string]jwt.MapClaims{
		"non-string": {"user_id": 12345},
		"missing":    {"sub": "someone"},
		"not-a-uuid": {"user_id": "not-a-uuid"},
	} {
		t.Run(name, func(t *testing.T) {
			app := handlerApp(claims)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/conversations", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestGetConversationMessagesForbiddenForOutsider(t *testing.T) {
	setupHandlerTest(t)
	owner := createHandlerProfile(t, "owner")
	outsider := createHandlerProfile(t, "outsider")

	conversation, err := services.EnsureConversationByName(owner.ID, services.DefaultConversationName)
	require.NoError(t, err)

	app := appForProfile(outsider)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/conversations/"+conversation.ID.String()+"/messages", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGetConversationMessagesUnknownIDStaysEmpty(t *testing.T) {
	setupHandlerTest(t)
	viewer := createHandlerProfile(t, "viewer")

	app := appForProfile(viewer)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/conversations/"+uuid.New().String()+"/messages", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Messages []services.DisplayMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Messages)
}

func TestSendToForeignConversationForbidden(t *testing.T) {
	setupHandlerTest(t)
	owner := createHandlerProfile(t, "owner")
	outsider := createHandlerProfile(t, "outsider")

	conversation, err := services.EnsureConversationByName(owner.ID, services.DefaultConversationName)
	require.NoError(t, err)

	app := appForProfile(outsider)
	resp, err := app.Test(jsonRequest(http.MethodPost, "/conversations/"+conversation.ID.String()+"/messages", `{"content":"let me in"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
