package models

import (
	"time"
)

// Message is append-only: no edits, no deletes. The only state that moves
// after creation is the read set, and that only grows.
type Message struct {
	ID        string    `gorm:"type:char(24);primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// ClientID deduplicates retried sends. Unique per sender; nil when
	// the client did not supply one, so plain sends never collide on
	// the index.
	ClientID *string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender" json:"client_id"`

	ChatID string `gorm:"type:char(24);not null;index" json:"chat_id"`
	Chat   *Chat  `gorm:"foreignKey:ChatID" json:"chat,omitempty"`

	SenderID string `gorm:"type:char(24);not null;uniqueIndex:idx_client_sender;index" json:"sender_id"`
	Sender   User   `gorm:"foreignKey:SenderID" json:"sender"`

	Content string `gorm:"type:text;not null" json:"content"`

	Reads []MessageRead `gorm:"foreignKey:MessageID" json:"reads"`
}

// MessageRead records that a participant other than the sender has seen
// the message. Rows are only ever inserted.
type MessageRead struct {
	MessageID string    `gorm:"type:char(24);primaryKey" json:"message_id"`
	UserID    string    `gorm:"type:char(24);primaryKey" json:"user_id"`
	ReadAt    time.Time `gorm:"autoCreateTime" json:"read_at"`
}

// ReadBy returns the reader id set.
func (m *Message) ReadBy() []string {
	ids := make([]string, 0, len(m.Reads))
	for _, r := range m.Reads {
		ids = append(ids, r.UserID)
	}
	return ids
}

// HasReader reports whether userID already read the message.
func (m *Message) HasReader(userID string) bool {
	for _, r := range m.Reads {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

type MessageResponse struct {
	ID        string       `json:"id"`
	ClientID  string       `json:"client_id,omitempty"`
	ChatID    string       `json:"chat_id"`
	SenderID  string       `json:"sender_id"`
	Sender    UserResponse `json:"sender"`
	Content   string       `json:"content"`
	ReadBy    []string     `json:"read_by"`
	CreatedAt time.Time    `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	clientID := ""
	if m.ClientID != nil {
		clientID = *m.ClientID
	}
	return MessageResponse{
		ID:        m.ID,
		ClientID:  clientID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Sender:    m.Sender.ToResponse(),
		Content:   m.Content,
		ReadBy:    m.ReadBy(),
		CreatedAt: m.CreatedAt,
	}
}
