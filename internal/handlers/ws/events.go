package ws

import (
	"encoding/json"
	"fmt"

	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

// Client payloads are never relayed blindly: each event re-resolves its
// referenced entities through the services, so a forged or malformed
// payload dies here instead of reaching other clients.

// SetupEvent binds the connection to the user's channel and announces
// presence.
type SetupEvent struct {
	UserID string `json:"userId"`
}

func (e *SetupEvent) GetType() string { return "setup" }

func (e *SetupEvent) Process(ctx *EventContext) error {
	if !models.ValidID(e.UserID) {
		return fmt.Errorf("malformed user id")
	}
	// The socket was authenticated on upgrade; the setup claim must match.
	if e.UserID != ctx.UserID {
		return fmt.Errorf("setup user does not match authenticated user")
	}
	ctx.Hub.Bind(ctx.Client, e.UserID)
	return nil
}

// JoinChatEvent subscribes the connection to the room of a chat the user
// is viewing.
type JoinChatEvent struct {
	ChatID string `json:"chatId"`
}

func (e *JoinChatEvent) GetType() string { return "joinChat" }

func (e *JoinChatEvent) Process(ctx *EventContext) error {
	if err := ctx.ChatService.CheckParticipant(e.ChatID, ctx.UserID); err != nil {
		return err
	}
	ctx.Hub.JoinRoom(ctx.Client, e.ChatID)
	return nil
}

// JoinNewGroupChatEvent is sent after creating a group over HTTP: the
// creator joins the room and every other participant is notified on
// their user channel so their chat list updates live.
type JoinNewGroupChatEvent struct {
	Chat struct {
		ID string `json:"id"`
	} `json:"chat"`
	UserID string `json:"userId"`
}

func (e *JoinNewGroupChatEvent) GetType() string { return "joinNewGroupChat" }

func (e *JoinNewGroupChatEvent) Process(ctx *EventContext) error {
	chat, err := ctx.ChatService.GetChatForParticipant(e.Chat.ID, ctx.UserID)
	if err != nil {
		return err
	}
	ctx.Hub.JoinRoom(ctx.Client, chat.ID)
	ctx.Hub.EmitToUsersExcept(chat.ParticipantIDs(), ctx.UserID, EventJoinGroupChat, chat.ToResponse(0))
	return nil
}

// typingPayload is relayed to the chat room as startTyping/stopTyping.
type typingPayload struct {
	ChatID string          `json:"chatId"`
	User   json.RawMessage `json:"user"`
}

// TypingEvent relays a typing indicator to everyone else in the room.
type TypingEvent struct {
	ChatID string          `json:"chatId"`
	User   json.RawMessage `json:"user"`
}

func (e *TypingEvent) GetType() string { return "typing" }

func (e *TypingEvent) Process(ctx *EventContext) error {
	if err := ctx.ChatService.CheckParticipant(e.ChatID, ctx.UserID); err != nil {
		return err
	}
	ctx.Hub.EmitToRoomExcept(e.ChatID, ctx.UserID, EventStartTyping, typingPayload{ChatID: e.ChatID, User: e.User})
	return nil
}

// TypingOffEvent clears the typing indicator for everyone else in the room.
type TypingOffEvent struct {
	ChatID string          `json:"chatId"`
	User   json.RawMessage `json:"user"`
}

func (e *TypingOffEvent) GetType() string { return "typingOff" }

func (e *TypingOffEvent) Process(ctx *EventContext) error {
	if err := ctx.ChatService.CheckParticipant(e.ChatID, ctx.UserID); err != nil {
		return err
	}
	ctx.Hub.EmitToRoomExcept(e.ChatID, ctx.UserID, EventStopTyping, typingPayload{ChatID: e.ChatID, User: e.User})
	return nil
}

// SendMessageEvent is the client re-publishing a message it already
// persisted over HTTP. The message is re-loaded from storage and
// delivered to every participant except the sender, whose UI already has
// it from the HTTP response.
type SendMessageEvent struct {
	ID string `json:"id"`
}

func (e *SendMessageEvent) GetType() string { return "sendMessage" }

func (e *SendMessageEvent) Process(ctx *EventContext) error {
	message, err := ctx.MessageService.GetMessageForSender(e.ID, ctx.UserID)
	if err != nil {
		return err
	}
	chat, err := ctx.ChatService.GetChatForParticipant(message.ChatID, ctx.UserID)
	if err != nil {
		return err
	}
	ctx.Hub.EmitToUsersExcept(chat.ParticipantIDs(), ctx.UserID, EventReceiveMessage, message.ToResponse())
	return nil
}
