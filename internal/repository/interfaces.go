package repository

import (
	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

// UserRepositoryInterface defines the read surface the chat core needs
// from the identity provider's user table.
type UserRepositoryInterface interface {
	FindByID(id string) (*models.User, error)
	FindByIDs(ids []string) ([]models.User, error)
	SearchUsers(query string, limit int) ([]models.User, error)
	UpdateAvatarPath(userID, path string) error
}

// ChatRepositoryInterface defines the contract for conversation storage.
type ChatRepositoryInterface interface {
	Create(chat *models.Chat, memberIDs []string, adminIDs []string) error
	FindByID(id string) (*models.Chat, error)
	FindDirectByPairKey(pairKey string) (*models.Chat, error)
	ListForUser(userID string) ([]models.Chat, error)
	Rename(chatID, name string) error
	AddMember(chatID, userID string) error
	RemoveMember(chatID, userID string) error
	ReplaceMembers(chatID string, userIDs []string) error
	ReplaceAdmins(chatID string, userIDs []string) error
	IsParticipant(chatID, userID string) (bool, error)
	AdminCount(chatID string) (int64, error)
	SetLatestMessage(chatID, messageID string) error
	UnreadCount(chatID, userID string) (int64, error)
}

// MessageRepositoryInterface defines the contract for message storage.
type MessageRepositoryInterface interface {
	Create(message *models.Message) error
	FindByID(id string) (*models.Message, error)
	FindByClientID(clientID, senderID string) (*models.Message, error)
	ListByChat(chatID string) ([]models.Message, error)
	AddRead(messageID, userID string) error
}
