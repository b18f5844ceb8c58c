package cache

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

const (
	// ChatListTTL is short: unread counts go stale quickly and the cache
	// only papers over list-refresh bursts.
	ChatListTTL = 2 * time.Minute
)

// ChatCache caches each user's chat list (with unread counts) in Redis,
// msgpack-encoded. All methods tolerate a nil cache so call sites don't
// need to care whether Redis is configured.
type ChatCache struct {
	redis *RedisCache
}

func NewChatCache(redis *RedisCache) *ChatCache {
	return &ChatCache{redis: redis}
}

func chatListKey(userID string) string {
	return "chatlist:" + userID
}

// GetChatList retrieves a cached chat list for the user.
func (cc *ChatCache) GetChatList(userID string) ([]models.ChatSummary, bool) {
	if cc == nil || cc.redis == nil {
		return nil, false
	}
	data, err := cc.redis.Get(chatListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var summaries []models.ChatSummary
	if err := msgpack.Unmarshal(data, &summaries); err != nil {
		return nil, false
	}
	return summaries, true
}

// SetChatList caches the user's chat list.
func (cc *ChatCache) SetChatList(userID string, summaries []models.ChatSummary) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(summaries)
	if err != nil {
		return err
	}
	return cc.redis.Set(chatListKey(userID), data, ChatListTTL)
}

// InvalidateChatLists drops the cached lists of every given user. Called
// after any mutation that moves a chat or its unread counts.
func (cc *ChatCache) InvalidateChatLists(userIDs ...string) error {
	if cc == nil || cc.redis == nil || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, chatListKey(id))
	}
	return cc.redis.Delete(keys...)
}
