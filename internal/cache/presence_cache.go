package cache

import (
	"time"
)

const (
	// OnlineUserTTL matches the hub's pong timeout so a crashed process
	// doesn't leave users looking online forever.
	OnlineUserTTL = 90 * time.Second
)

// PresenceCache mirrors the hub's in-process presence map into Redis so
// other processes (and the user search surface) can read online status.
// The hub remains the source of truth for fan-out.
type PresenceCache struct {
	redis *RedisCache
}

func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

func onlineUserKey(userID string) string {
	return "online:" + userID
}

// SetUserOnline adds a user to the online users set
func (pc *PresenceCache) SetUserOnline(userID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetAdd("online:users", userID); err != nil {
		return err
	}
	// Individual key with TTL for auto-expiration.
	return pc.redis.Set(onlineUserKey(userID), []byte("1"), OnlineUserTTL)
}

// SetUserOffline removes a user from the online users set
func (pc *PresenceCache) SetUserOffline(userID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetRemove("online:users", userID); err != nil {
		return err
	}
	return pc.redis.Delete(onlineUserKey(userID))
}

// IsUserOnline checks if a user is online
func (pc *PresenceCache) IsUserOnline(userID string) bool {
	if pc == nil || pc.redis == nil {
		return false
	}
	return pc.redis.Exists(onlineUserKey(userID))
}

// GetOnlineUsers returns all online user ids
func (pc *PresenceCache) GetOnlineUsers() ([]string, error) {
	if pc == nil || pc.redis == nil {
		return nil, nil
	}
	return pc.redis.SetMembers("online:users")
}

// RefreshUserOnline extends the TTL for an online user
func (pc *PresenceCache) RefreshUserOnline(userID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	return pc.redis.Set(onlineUserKey(userID), []byte("1"), OnlineUserTTL)
}
