package handlers

import (
	"log"

	"github.com/gofiber/websocket/v2"

	"github.com/wavelength-chat/wavelength-backend/internal/cache"
	"github.com/wavelength-chat/wavelength-backend/internal/handlers/ws"
	"github.com/wavelength-chat/wavelength-backend/internal/service"
)

type WebSocketHandler struct {
	chatService    *service.ChatService
	messageService *service.MessageService
	hub            *ws.Hub
}

func NewWebSocketHandler(chatService *service.ChatService, messageService *service.MessageService, presenceCache *cache.PresenceCache) *WebSocketHandler {
	return &WebSocketHandler{
		chatService:    chatService,
		messageService: messageService,
		hub:            ws.NewHub(presenceCache),
	}
}

// GetHub returns the hub instance (useful for sending events from other handlers)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(string)

	client := h.hub.Attach(c)
	defer h.hub.Detach(client)

	log.Printf("User %s connected via WebSocket", userID)

	ctx := &ws.EventContext{
		UserID:         userID,
		Client:         client,
		Hub:            h.hub,
		ChatService:    h.chatService,
		MessageService: h.messageService,
	}

	for {
		_, eventBytes, err := c.ReadMessage()
		if err != nil {
			log.Printf("Error reading event from user %s: %v", userID, err)
			break
		}

		event, err := ws.Deserialize(eventBytes)
		if err != nil {
			// Malformed payloads are suppressed and logged, never relayed.
			log.Printf("Error deserializing event from user %s: %v", userID, err)
			_ = ws.SendError(client, "invalid_event", "Invalid event format", err.Error())
			continue
		}

		if err := event.Process(ctx); err != nil {
			log.Printf("Error processing event %s from user %s: %v", event.GetType(), userID, err)
			_ = ws.SendError(client, "processing_failed", "Failed to process event", err.Error())
		}
	}

	log.Printf("User %s disconnected from WebSocket", userID)
}
