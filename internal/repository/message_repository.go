package repository

import (
	"gorm.io/gorm"

	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	if message.ID == "" {
		message.ID = models.NewID()
	}
	return r.db.Create(message).Error
}

func (r *MessageRepository) FindByID(id string) (*models.Message, error) {
	var message models.Message
	err := r.db.
		Preload("Sender").
		Preload("Chat").
		Preload("Reads").
		First(&message, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) FindByClientID(clientID, senderID string) (*models.Message, error) {
	var message models.Message
	err := r.db.
		Preload("Sender").
		Preload("Chat").
		Preload("Reads").
		Where("client_id = ? AND sender_id = ?", clientID, senderID).
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListByChat returns the full history in storage-assigned creation order.
func (r *MessageRepository) ListByChat(chatID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Preload("Sender").
		Preload("Reads").
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// AddRead inserts one read receipt. The composite primary key rejects a
// second insert for the same (message, user) pair.
func (r *MessageRepository) AddRead(messageID, userID string) error {
	read := models.MessageRead{MessageID: messageID, UserID: userID}
	return r.db.Create(&read).Error
}
