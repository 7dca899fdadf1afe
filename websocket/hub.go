package websocket

import (
	"log"
	"sync"

	"github.com/driftchat/chat_backend/database"
	"github.com/driftchat/chat_backend/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	ProfileID uuid.UUID
	Conn      *websocket.Conn
}

type SendPayload struct {
	ID             string `json:"id"` // optional client-chosen message id
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	AsAssistant    bool   `json:"as_assistant"`
	Typing         bool   `json:"typing"`
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Broadcast = make(chan *models.Message)

// RunHub routes committed messages to every connected participant of
// the message's conversation except the sender. Subscriptions live
// exactly as long as the connection: register on connect, unregister on
// teardown. main starts exactly one hub; a second loop would steal
// events off these channels.
func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.ProfileID)
			clientsMu.Lock()
			clients[client.ProfileID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.ProfileID)
			clientsMu.Lock()
			if conn, ok := clients[client.ProfileID]; ok && conn == client.Conn {
				delete(clients, client.ProfileID)
			}
			clientsMu.Unlock()
		case message := <-Broadcast:
			var participantIDs []uuid.UUID
			err := database.DB.
				Table("conversation_participants").
				Where("conversation_id = ?", message.ConversationID).
				Pluck("user_profile_id", &participantIDs).Error
			if err != nil {
				log.Printf("Error fetching participant IDs for conversation %s: %v", message.ConversationID, err)
				continue
			}

			clientsMu.RLock()
			for _, participantID := range participantIDs {
				if participantID == message.SenderID {
					continue
				}
				if conn, ok := clients[participantID]; ok {
					if err := conn.WriteJSON(message); err != nil {
						log.Printf("Error sending message to client %s: %v", participantID, err)
						conn.Close()
						clientsMu.RUnlock()
						clientsMu.Lock()
						delete(clients, participantID)
						clientsMu.Unlock()
						clientsMu.RLock()
					}
				}
			}
			clientsMu.RUnlock()
		}
	}
}

// IsOnline reports whether a profile currently holds a live
// subscription. Offline participants are candidates for email
// notification instead of a push.
func IsOnline(profileID uuid.UUID) bool {
	clientsMu.RLock()
	defer clientsMu.RUnlock()
	_, ok := clients[profileID]
	return ok
}
