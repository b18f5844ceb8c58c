package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// withChatAssociations loads everything a populated chat response needs:
// ordered members, admins, and the latest message with its sender.
func withChatAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_members.position ASC")
		}).
		Preload("Members.User").
		Preload("Admins", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_admins.granted_at ASC")
		}).
		Preload("Admins.User").
		Preload("LatestMessage").
		Preload("LatestMessage.Sender").
		Preload("LatestMessage.Reads")
}

// Create persists the chat together with its member and admin rows in one
// transaction. Member order follows the given slice.
func (r *ChatRepository) Create(chat *models.Chat, memberIDs []string, adminIDs []string) error {
	if chat.ID == "" {
		chat.ID = models.NewID()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		for i, userID := range memberIDs {
			member := models.ChatMember{ChatID: chat.ID, UserID: userID, Position: i}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		for _, userID := range adminIDs {
			admin := models.ChatAdmin{ChatID: chat.ID, UserID: userID}
			if err := tx.Create(&admin).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ChatRepository) FindByID(id string) (*models.Chat, error) {
	var chat models.Chat
	if err := withChatAssociations(r.db).First(&chat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) FindDirectByPairKey(pairKey string) (*models.Chat, error) {
	var chat models.Chat
	err := withChatAssociations(r.db).
		Where("is_group_chat = false AND pair_key = ?", pairKey).
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) ListForUser(userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := withChatAssociations(r.db).
		Where("id IN (SELECT chat_id FROM chat_members WHERE user_id = ?) OR id IN (SELECT chat_id FROM chat_admins WHERE user_id = ?)",
			userID, userID).
		Order("updated_at DESC").
		Find(&chats).Error
	return chats, err
}

func (r *ChatRepository) Rename(chatID, name string) error {
	return r.db.Model(&models.Chat{}).Where("id = ?", chatID).
		Update("chat_name", name).Error
}

func (r *ChatRepository) AddMember(chatID, userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxPos int
		// COALESCE keeps the first member at position 0.
		if err := tx.Model(&models.ChatMember{}).
			Where("chat_id = ?", chatID).
			Select("COALESCE(MAX(position), -1)").
			Scan(&maxPos).Error; err != nil {
			return err
		}
		member := models.ChatMember{ChatID: chatID, UserID: userID, Position: maxPos + 1}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return touchChat(tx, chatID)
	})
}

// RemoveMember pulls the user from the member set and, so no departed
// member lingers with authority, from the admin set as well.
func (r *ChatRepository) RemoveMember(chatID, userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ? AND user_id = ?", chatID, userID).
			Delete(&models.ChatMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ? AND user_id = ?", chatID, userID).
			Delete(&models.ChatAdmin{}).Error; err != nil {
			return err
		}
		return touchChat(tx, chatID)
	})
}

func (r *ChatRepository) ReplaceMembers(chatID string, userIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).
			Delete(&models.ChatMember{}).Error; err != nil {
			return err
		}
		for i, userID := range userIDs {
			member := models.ChatMember{ChatID: chatID, UserID: userID, Position: i}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return touchChat(tx, chatID)
	})
}

func (r *ChatRepository) ReplaceAdmins(chatID string, userIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).
			Delete(&models.ChatAdmin{}).Error; err != nil {
			return err
		}
		for _, userID := range userIDs {
			admin := models.ChatAdmin{ChatID: chatID, UserID: userID}
			if err := tx.Create(&admin).Error; err != nil {
				return err
			}
		}
		return touchChat(tx, chatID)
	})
}

// IsParticipant reports membership in either the member or admin set.
func (r *ChatRepository) IsParticipant(chatID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	err = r.db.Model(&models.ChatAdmin{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ChatRepository) AdminCount(chatID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ChatAdmin{}).
		Where("chat_id = ?", chatID).
		Count(&count).Error
	return count, err
}

func (r *ChatRepository) SetLatestMessage(chatID, messageID string) error {
	return r.db.Model(&models.Chat{}).Where("id = ?", chatID).
		Update("latest_message_id", messageID).Error
}

// UnreadCount counts messages in the chat the user neither sent nor read.
func (r *ChatRepository) UnreadCount(chatID, userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("chat_id = ? AND sender_id != ?", chatID, userID).
		Where("NOT EXISTS (SELECT 1 FROM message_reads WHERE message_reads.message_id = messages.id AND message_reads.user_id = ?)", userID).
		Count(&count).Error
	return count, err
}

// touchChat bumps updated_at so membership mutations surface in the
// updated-at-descending chat list order.
func touchChat(tx *gorm.DB, chatID string) error {
	return tx.Model(&models.Chat{}).Where("id = ?", chatID).
		Update("updated_at", time.Now()).Error
}
