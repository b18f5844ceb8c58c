package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/wavelength-chat/wavelength-backend/internal/apperr"
	"github.com/wavelength-chat/wavelength-backend/internal/cache"
	"github.com/wavelength-chat/wavelength-backend/internal/models"
	"github.com/wavelength-chat/wavelength-backend/internal/repository"
	"github.com/wavelength-chat/wavelength-backend/internal/validation"
)

type MessageService struct {
	messageRepo repository.MessageRepositoryInterface
	chatRepo    repository.ChatRepositoryInterface
	chatCache   *cache.ChatCache
}

func NewMessageService(messageRepo repository.MessageRepositoryInterface, chatRepo repository.ChatRepositoryInterface, chatCache *cache.ChatCache) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		chatCache:   chatCache,
	}
}

// ListMessages returns the chat's full history in creation order. Only
// current members and admins may read it.
func (s *MessageService) ListMessages(chatID, requesterID string) ([]models.Message, error) {
	if err := validation.RequireID("chat_id", chatID); err != nil {
		return nil, err
	}
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		return nil, lookupErr(err, "chat_not_found", "chat not found")
	}
	if !chat.HasMember(requesterID) && !chat.HasAdmin(requesterID) {
		return nil, apperr.Forbidden("not_participant", "you are not part of this chat")
	}

	messages, err := s.messageRepo.ListByChat(chatID)
	if err != nil {
		return nil, apperr.Unavailable("message_list_failed", err)
	}
	return messages, nil
}

// SendMessage appends a message to the chat and moves the chat's
// latest-message pointer. The pointer update is the only chat mutation
// the send path performs; it bumps UpdatedAt and with it the chat-list
// order. A repeated ClientID aimed at the same chat returns the
// already-persisted message; the same id aimed at another chat is
// rejected.
func (s *MessageService) SendMessage(chatID, senderID, content, clientID string) (*models.Message, error) {
	content, err := validation.MessageContent(content)
	if err != nil {
		return nil, err
	}
	if err := validation.RequireID("chat_id", chatID); err != nil {
		return nil, err
	}
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		return nil, lookupErr(err, "chat_not_found", "chat not found")
	}
	if !chat.HasMember(senderID) && !chat.HasAdmin(senderID) {
		return nil, apperr.Forbidden("not_participant", "you are not part of this chat")
	}

	if clientID != "" {
		if existing, err := s.messageRepo.FindByClientID(clientID, senderID); err == nil {
			if existing.ChatID != chatID {
				return nil, errClientIDReused()
			}
			return existing, nil
		}
	}

	message := &models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
	}
	if clientID != "" {
		message.ClientID = &clientID
	}
	if err := s.messageRepo.Create(message); err != nil {
		if clientID != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against a concurrent retry; the first insert
			// is the message.
			existing, ferr := s.messageRepo.FindByClientID(clientID, senderID)
			if ferr != nil {
				return nil, apperr.Unavailable("message_create_failed", err)
			}
			if existing.ChatID != chatID {
				return nil, errClientIDReused()
			}
			return existing, nil
		}
		return nil, apperr.Unavailable("message_create_failed", err)
	}
	if err := s.chatRepo.SetLatestMessage(chatID, message.ID); err != nil {
		return nil, apperr.Unavailable("latest_message_update_failed", err)
	}

	_ = s.chatCache.InvalidateChatLists(chat.ParticipantIDs()...)
	return s.reload(message.ID)
}

// MarkRead appends the reader to the message's read set. A message can
// only be marked by a current participant who is not the sender and has
// not read it yet; the existence, sender and already-read preconditions
// collapse into one InvalidOperation so a second identical call is
// rejected, not absorbed.
func (s *MessageService) MarkRead(messageID, readerID string) (*models.Message, error) {
	if err := validation.RequireID("message_id", messageID); err != nil {
		return nil, err
	}
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCannotMarkRead()
		}
		return nil, apperr.Unavailable("message_lookup_failed", err)
	}

	chat, err := s.chatRepo.FindByID(message.ChatID)
	if err != nil {
		return nil, lookupErr(err, "chat_not_found", "chat not found")
	}
	if !chat.HasMember(readerID) && !chat.HasAdmin(readerID) {
		return nil, apperr.Forbidden("not_participant", "you are not part of this chat")
	}

	if message.SenderID == readerID || message.HasReader(readerID) {
		return nil, errCannotMarkRead()
	}

	if err := s.messageRepo.AddRead(messageID, readerID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Raced with the same reader; the precondition no longer holds.
			return nil, errCannotMarkRead()
		}
		return nil, apperr.Unavailable("mark_read_failed", err)
	}

	_ = s.chatCache.InvalidateChatLists(readerID)
	return s.reload(messageID)
}

// GetMessageForSender loads a message the requester sent. The realtime
// fan-out uses it to relay only messages that actually exist and belong
// to the relaying user.
func (s *MessageService) GetMessageForSender(messageID, senderID string) (*models.Message, error) {
	if err := validation.RequireID("message_id", messageID); err != nil {
		return nil, err
	}
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, lookupErr(err, "message_not_found", "message not found")
	}
	if message.SenderID != senderID {
		return nil, apperr.Forbidden("not_sender", "only the sender may publish this message")
	}
	return message, nil
}

func (s *MessageService) reload(messageID string) (*models.Message, error) {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, apperr.Unavailable("message_reload_failed", err)
	}
	return message, nil
}

func errClientIDReused() error {
	return apperr.InvalidOperation("client_id_reused",
		"client id was already used for a message in another chat")
}

func errCannotMarkRead() error {
	return apperr.InvalidOperation("cannot_mark_read",
		"message does not exist, was sent by you, or is already read")
}
