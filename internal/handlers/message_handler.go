package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wavelength-chat/wavelength-backend/internal/httpx"
	"github.com/wavelength-chat/wavelength-backend/internal/models"
	"github.com/wavelength-chat/wavelength-backend/internal/service"
	"github.com/wavelength-chat/wavelength-backend/internal/validation"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type SendMessageRequest struct {
	ChatID   string `json:"chatId" validate:"required,entityid"`
	Message  string `json:"message" validate:"required"`
	ClientID string `json:"clientId" validate:"omitempty,uuid4"`
}

type MarkReadRequest struct {
	MessageID string `json:"messageId" validate:"required,entityid"`
}

// GetMessages returns a chat's full history in creation order.
func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	chatID := c.Query("chatId")
	if chatID == "" {
		return httpx.BadRequest(c, "missing_chat_id", "chatId is required")
	}

	messages, err := h.messageService.ListMessages(chatID, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	responses := make([]models.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		responses = append(responses, msg.ToResponse())
	}

	return c.JSON(fiber.Map{
		"messages": responses,
		"count":    len(responses),
	})
}

// SendMessage appends a message to a chat and moves the chat's
// latest-message pointer.
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return httpx.FromError(c, err)
	}

	message, err := h.messageService.SendMessage(req.ChatID, userID, req.Message, req.ClientID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

// MarkRead adds the caller to a message's read set.
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return httpx.FromError(c, err)
	}

	message, err := h.messageService.MarkRead(req.MessageID, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.JSON(message.ToResponse())
}
