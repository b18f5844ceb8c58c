package testutil

import (
	"os"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestUser creates a test user with default values
func (h *TestHelper) CreateTestUser(id, username, email string) *models.User {
	if id == "" {
		id = models.NewID()
	}
	if username == "" {
		username = "testuser"
	}
	if email == "" {
		email = "test@example.com"
	}

	return &models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hashed_password_123",
		FirstName:    "Test",
		LastName:     "User",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// CreateTestDirectChat creates a 1:1 conversation between two users
func (h *TestHelper) CreateTestDirectChat(id, userA, userB string) *models.Chat {
	if id == "" {
		id = models.NewID()
	}
	pairKey := models.DirectPairKey(userA, userB)
	return &models.Chat{
		ID:          id,
		ChatName:    "sender",
		IsGroupChat: false,
		PairKey:     &pairKey,
		Members: []models.ChatMember{
			{ChatID: id, UserID: userA, Position: 0, JoinedAt: time.Now()},
			{ChatID: id, UserID: userB, Position: 1, JoinedAt: time.Now()},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestGroupChat creates a group conversation with the first member
// acting as admin
func (h *TestHelper) CreateTestGroupChat(id, name string, memberIDs []string) *models.Chat {
	if id == "" {
		id = models.NewID()
	}
	if name == "" {
		name = "Test Group"
	}
	chat := &models.Chat{
		ID:          id,
		ChatName:    name,
		IsGroupChat: true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	for i, userID := range memberIDs {
		chat.Members = append(chat.Members, models.ChatMember{
			ChatID: id, UserID: userID, Position: i, JoinedAt: time.Now(),
		})
	}
	if len(memberIDs) > 0 {
		chat.Admins = append(chat.Admins, models.ChatAdmin{
			ChatID: id, UserID: memberIDs[0], GrantedAt: time.Now(),
		})
	}
	return chat
}

// CreateTestMessage creates a test message with default values
func (h *TestHelper) CreateTestMessage(id, chatID, senderID, content string) *models.Message {
	if id == "" {
		id = models.NewID()
	}
	if content == "" {
		content = "Test message"
	}
	return &models.Message{
		ID:        id,
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
		Sender: models.User{
			ID:       senderID,
			Username: "sender",
			Email:    "sender@example.com",
		},
	}
}

// SetupTestEnv sets up required environment variables for testing
func (h *TestHelper) SetupTestEnv() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	os.Setenv("DATABASE_URL", "")
}

// TeardownTestEnv cleans up environment variables after testing
func (h *TestHelper) TeardownTestEnv() {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("DATABASE_URL")
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

// AssertNotNil checks if a value is not nil
func (h *TestHelper) AssertNotNil(value interface{}, testName string) {
	if value == nil {
		h.t.Errorf("%s: expected non-nil value", testName)
	}
}

// AssertNil checks if a value is nil
func (h *TestHelper) AssertNil(value interface{}, testName string) {
	if value != nil {
		h.t.Errorf("%s: expected nil value but got %v", testName, value)
	}
}

// GetRecordNotFoundError returns the storage-layer not-found sentinel
func GetRecordNotFoundError() error {
	return gorm.ErrRecordNotFound
}
