package service

import (
	"strings"

	"gorm.io/gorm"

	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

// MockUserRepository is an in-memory UserRepositoryInterface for testing
type MockUserRepository struct {
	users map[string]*models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*models.User)}
}

func (m *MockUserRepository) Add(user *models.User) {
	m.users[user.ID] = user
}

func (m *MockUserRepository) FindByID(id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) FindByIDs(ids []string) ([]models.User, error) {
	var result []models.User
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (m *MockUserRepository) SearchUsers(query string, limit int) ([]models.User, error) {
	var result []models.User
	for _, user := range m.users {
		if len(result) >= limit {
			break
		}
		if strings.Contains(user.Username, query) || strings.Contains(user.Email, query) {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (m *MockUserRepository) UpdateAvatarPath(userID, path string) error {
	user, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.AvatarPath = path
	return nil
}

// MockMessageRepository is an in-memory MessageRepositoryInterface for
// testing. Insertion order doubles as creation order.
type MockMessageRepository struct {
	messages map[string]*models.Message
	order    []string

	// clientIDLookupMisses makes the next N FindByClientID calls come up
	// empty, simulating a concurrent retry that lands between the dedup
	// check and the insert.
	clientIDLookupMisses int
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{messages: make(map[string]*models.Message)}
}

func (m *MockMessageRepository) Create(message *models.Message) error {
	// Mirrors the (client_id, sender_id) unique index; NULL client ids
	// never collide.
	if message.ClientID != nil {
		for _, id := range m.order {
			existing := m.messages[id]
			if existing.ClientID != nil && *existing.ClientID == *message.ClientID &&
				existing.SenderID == message.SenderID {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if message.ID == "" {
		message.ID = models.NewID()
	}
	m.messages[message.ID] = message
	m.order = append(m.order, message.ID)
	return nil
}

func (m *MockMessageRepository) FindByID(id string) (*models.Message, error) {
	if msg, ok := m.messages[id]; ok {
		return msg, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) FindByClientID(clientID, senderID string) (*models.Message, error) {
	if m.clientIDLookupMisses > 0 {
		m.clientIDLookupMisses--
		return nil, gorm.ErrRecordNotFound
	}
	for _, id := range m.order {
		msg := m.messages[id]
		if msg.ClientID != nil && *msg.ClientID == clientID && msg.SenderID == senderID {
			return msg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMessageRepository) ListByChat(chatID string) ([]models.Message, error) {
	var result []models.Message
	for _, id := range m.order {
		if m.messages[id].ChatID == chatID {
			result = append(result, *m.messages[id])
		}
	}
	return result, nil
}

func (m *MockMessageRepository) AddRead(messageID, userID string) error {
	msg, ok := m.messages[messageID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if msg.HasReader(userID) {
		return gorm.ErrDuplicatedKey
	}
	msg.Reads = append(msg.Reads, models.MessageRead{MessageID: messageID, UserID: userID})
	return nil
}

// MockChatRepository is an in-memory ChatRepositoryInterface for testing.
// When wired to a MockMessageRepository it computes real unread counts.
type MockChatRepository struct {
	chats map[string]*models.Chat
	msgs  *MockMessageRepository
}

func NewMockChatRepository(msgs *MockMessageRepository) *MockChatRepository {
	return &MockChatRepository{chats: make(map[string]*models.Chat), msgs: msgs}
}

func (m *MockChatRepository) Create(chat *models.Chat, memberIDs []string, adminIDs []string) error {
	if chat.PairKey != nil {
		for _, existing := range m.chats {
			if existing.PairKey != nil && *existing.PairKey == *chat.PairKey {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if chat.ID == "" {
		chat.ID = models.NewID()
	}
	for i, userID := range memberIDs {
		chat.Members = append(chat.Members, models.ChatMember{ChatID: chat.ID, UserID: userID, Position: i})
	}
	for _, userID := range adminIDs {
		chat.Admins = append(chat.Admins, models.ChatAdmin{ChatID: chat.ID, UserID: userID})
	}
	m.chats[chat.ID] = chat
	return nil
}

func (m *MockChatRepository) FindByID(id string) (*models.Chat, error) {
	if chat, ok := m.chats[id]; ok {
		return chat, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockChatRepository) FindDirectByPairKey(pairKey string) (*models.Chat, error) {
	for _, chat := range m.chats {
		if chat.PairKey != nil && *chat.PairKey == pairKey {
			return chat, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockChatRepository) ListForUser(userID string) ([]models.Chat, error) {
	var result []models.Chat
	for _, chat := range m.chats {
		if chat.HasMember(userID) || chat.HasAdmin(userID) {
			result = append(result, *chat)
		}
	}
	return result, nil
}

func (m *MockChatRepository) Rename(chatID, name string) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.ChatName = name
	return nil
}

func (m *MockChatRepository) AddMember(chatID, userID string) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	maxPos := -1
	for _, member := range chat.Members {
		if member.Position > maxPos {
			maxPos = member.Position
		}
	}
	chat.Members = append(chat.Members, models.ChatMember{ChatID: chatID, UserID: userID, Position: maxPos + 1})
	return nil
}

func (m *MockChatRepository) RemoveMember(chatID, userID string) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	members := chat.Members[:0]
	for _, member := range chat.Members {
		if member.UserID != userID {
			members = append(members, member)
		}
	}
	chat.Members = members
	// Membership removal demotes admin standing too.
	admins := chat.Admins[:0]
	for _, admin := range chat.Admins {
		if admin.UserID != userID {
			admins = append(admins, admin)
		}
	}
	chat.Admins = admins
	return nil
}

func (m *MockChatRepository) ReplaceMembers(chatID string, userIDs []string) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.Members = nil
	for i, userID := range userIDs {
		chat.Members = append(chat.Members, models.ChatMember{ChatID: chatID, UserID: userID, Position: i})
	}
	return nil
}

func (m *MockChatRepository) ReplaceAdmins(chatID string, userIDs []string) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.Admins = nil
	for _, userID := range userIDs {
		chat.Admins = append(chat.Admins, models.ChatAdmin{ChatID: chatID, UserID: userID})
	}
	return nil
}

func (m *MockChatRepository) IsParticipant(chatID, userID string) (bool, error) {
	chat, ok := m.chats[chatID]
	if !ok {
		return false, nil
	}
	return chat.HasMember(userID) || chat.HasAdmin(userID), nil
}

func (m *MockChatRepository) AdminCount(chatID string) (int64, error) {
	chat, ok := m.chats[chatID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return int64(len(chat.Admins)), nil
}

func (m *MockChatRepository) SetLatestMessage(chatID, messageID string) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.LatestMessageID = &messageID
	if m.msgs != nil {
		if msg, err := m.msgs.FindByID(messageID); err == nil {
			chat.LatestMessage = msg
		}
	}
	return nil
}

func (m *MockChatRepository) UnreadCount(chatID, userID string) (int64, error) {
	if m.msgs == nil {
		return 0, nil
	}
	var count int64
	for _, id := range m.msgs.order {
		msg := m.msgs.messages[id]
		if msg.ChatID == chatID && msg.SenderID != userID && !msg.HasReader(userID) {
			count++
		}
	}
	return count, nil
}
