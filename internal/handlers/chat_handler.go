package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wavelength-chat/wavelength-backend/internal/httpx"
	"github.com/wavelength-chat/wavelength-backend/internal/models"
	"github.com/wavelength-chat/wavelength-backend/internal/service"
	"github.com/wavelength-chat/wavelength-backend/internal/validation"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type DirectChatRequest struct {
	UserID string `json:"userId" validate:"required,entityid"`
}

type GroupChatRequest struct {
	ChatName string   `json:"chatName" validate:"required"`
	Users    []string `json:"users" validate:"required,min=1,dive,entityid"`
}

type RenameGroupRequest struct {
	ChatID   string `json:"chatId" validate:"required,entityid"`
	ChatName string `json:"chatName" validate:"required"`
}

type ChatMemberRequest struct {
	ChatID string `json:"chatId" validate:"required,entityid"`
	UserID string `json:"userId" validate:"required,entityid"`
}

type ReplaceUsersRequest struct {
	ChatID string   `json:"chatId" validate:"required,entityid"`
	Users  []string `json:"users" validate:"required,dive,entityid"`
}

// GetChats lists every chat the caller belongs to, newest activity first,
// each with the caller's unread count.
func (h *ChatHandler) GetChats(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	summaries, err := h.chatService.ListChats(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	responses := make([]models.ChatResponse, 0, len(summaries))
	for _, s := range summaries {
		responses = append(responses, s.Chat.ToResponse(s.UnreadCount))
	}

	return c.JSON(fiber.Map{
		"chats": responses,
		"count": len(responses),
	})
}

// CreateDirectChat finds or creates the unique 1:1 chat with another user.
func (h *ChatHandler) CreateDirectChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req DirectChatRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return httpx.FromError(c, err)
	}

	chat, err := h.chatService.GetOrCreateDirectChat(userID, req.UserID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(chat.ToResponse(0))
}

// CreateGroupChat creates a group with the caller as its first admin.
func (h *ChatHandler) CreateGroupChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req GroupChatRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return httpx.FromError(c, err)
	}

	chat, err := h.chatService.CreateGroupChat(userID, req.ChatName, req.Users)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(chat.ToResponse(0))
}

func (h *ChatHandler) RenameGroupChat(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req RenameGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return httpx.FromError(c, err)
	}

	chat, err := h.chatService.RenameGroupChat(req.ChatID, req.ChatName, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.JSON(chat.ToResponse(0))
}

func (h *ChatHandler) AddMember(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req ChatMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return httpx.FromError(c, err)
	}

	chat, err := h.chatService.AddMember(req.ChatID, req.UserID, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.JSON(chat.ToResponse(0))
}

func (h *ChatHandler) RemoveMember(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req ChatMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return httpx.FromError(c, err)
	}

	chat, err := h.chatService.RemoveMember(req.ChatID, req.UserID, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.JSON(chat.ToResponse(0))
}

// ReplaceMembers overwrites the member set wholesale.
func (h *ChatHandler) ReplaceMembers(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req ReplaceUsersRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return httpx.FromError(c, err)
	}

	chat, err := h.chatService.ReplaceMembers(req.ChatID, req.Users, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.JSON(chat.ToResponse(0))
}

// ReplaceAdmins overwrites the admin set wholesale.
func (h *ChatHandler) ReplaceAdmins(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req ReplaceUsersRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return httpx.FromError(c, err)
	}

	chat, err := h.chatService.ReplaceAdmins(req.ChatID, req.Users, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.JSON(chat.ToResponse(0))
}
