package models

import (
	"strings"
	"time"
)

// Chat is a conversation, either direct (exactly two members, no admins)
// or a group (ordered members plus a non-empty admin set).
type Chat struct {
	ID        string    `gorm:"type:char(24);primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ChatName    string `gorm:"size:100;not null" json:"chat_name"`
	IsGroupChat bool   `gorm:"default:false;index" json:"is_group_chat"`

	// PairKey is the sorted "a:b" of the two member ids for direct chats,
	// nil for groups. The unique index is what makes get-or-create safe
	// under concurrent first contact.
	PairKey *string `gorm:"type:varchar(49);uniqueIndex" json:"-"`

	LatestMessageID *string  `gorm:"type:char(24)" json:"latest_message_id"`
	LatestMessage   *Message `gorm:"foreignKey:LatestMessageID" json:"latest_message,omitempty"`

	Members []ChatMember `gorm:"foreignKey:ChatID" json:"members"`
	Admins  []ChatAdmin  `gorm:"foreignKey:ChatID" json:"admins"`
}

// ChatMember is one row of the ordered membership set. Position preserves
// insertion order for display.
type ChatMember struct {
	ChatID   string    `gorm:"type:char(24);primaryKey" json:"chat_id"`
	UserID   string    `gorm:"type:char(24);primaryKey" json:"user_id"`
	Position int       `gorm:"not null" json:"position"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

// ChatAdmin is tracked independently of membership. Removal of a member
// cascades here so a departed member never lingers as an admin.
type ChatAdmin struct {
	ChatID    string    `gorm:"type:char(24);primaryKey" json:"chat_id"`
	UserID    string    `gorm:"type:char(24);primaryKey" json:"user_id"`
	GrantedAt time.Time `gorm:"autoCreateTime" json:"granted_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

// DirectPairKey returns the canonical key for a direct chat between two
// users, independent of who initiated it.
func DirectPairKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// MemberIDs returns member ids in insertion order.
func (c *Chat) MemberIDs() []string {
	ids := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// AdminIDs returns the admin id set.
func (c *Chat) AdminIDs() []string {
	ids := make([]string, 0, len(c.Admins))
	for _, a := range c.Admins {
		ids = append(ids, a.UserID)
	}
	return ids
}

// ParticipantIDs returns the union of members and admins, members first,
// without duplicates. Fan-out and authorization both work off this set.
func (c *Chat) ParticipantIDs() []string {
	seen := make(map[string]struct{}, len(c.Members)+len(c.Admins))
	ids := make([]string, 0, len(c.Members)+len(c.Admins))
	for _, m := range c.Members {
		if _, ok := seen[m.UserID]; !ok {
			seen[m.UserID] = struct{}{}
			ids = append(ids, m.UserID)
		}
	}
	for _, a := range c.Admins {
		if _, ok := seen[a.UserID]; !ok {
			seen[a.UserID] = struct{}{}
			ids = append(ids, a.UserID)
		}
	}
	return ids
}

// HasMember reports whether userID is in the member set.
func (c *Chat) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// HasAdmin reports whether userID is in the admin set.
func (c *Chat) HasAdmin(userID string) bool {
	for _, a := range c.Admins {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// ChatSummary pairs a chat with the viewer's unread count. It is what
// the chat list returns and what the list cache stores.
type ChatSummary struct {
	Chat        Chat  `msgpack:"chat"`
	UnreadCount int64 `msgpack:"unread_count"`
}

// ChatResponse is the wire shape of a chat. A user present in both the
// member and admin sets renders only in Admins so clients never see the
// same profile twice.
type ChatResponse struct {
	ID            string           `json:"id"`
	ChatName      string           `json:"chat_name"`
	IsGroupChat   bool             `json:"is_group_chat"`
	Members       []UserResponse   `json:"members"`
	Admins        []UserResponse   `json:"admins"`
	LatestMessage *MessageResponse `json:"latest_message,omitempty"`
	UnreadCount   int64            `json:"unread_count"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (c *Chat) ToResponse(unreadCount int64) ChatResponse {
	admins := make([]UserResponse, 0, len(c.Admins))
	adminSet := make(map[string]struct{}, len(c.Admins))
	for _, a := range c.Admins {
		adminSet[a.UserID] = struct{}{}
		admins = append(admins, a.User.ToResponse())
	}

	members := make([]UserResponse, 0, len(c.Members))
	for _, m := range c.Members {
		if _, isAdmin := adminSet[m.UserID]; isAdmin {
			continue
		}
		members = append(members, m.User.ToResponse())
	}

	resp := ChatResponse{
		ID:          c.ID,
		ChatName:    strings.TrimSpace(c.ChatName),
		IsGroupChat: c.IsGroupChat,
		Members:     members,
		Admins:      admins,
		UnreadCount: unreadCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.LatestMessage != nil {
		mr := c.LatestMessage.ToResponse()
		resp.LatestMessage = &mr
	}
	return resp
}
