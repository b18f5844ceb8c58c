package ws

import (
	"strings"
	"testing"

	"github.com/wavelength-chat/wavelength-backend/internal/cache"
)

func newTestHub() *Hub {
	return NewHub(cache.NewPresenceCache(nil))
}

func newTestClient(id string) *ClientConnection {
	return &ClientConnection{ID: id}
}

func TestHubBindAndDetach(t *testing.T) {
	hub := newTestHub()
	userID := strings.Repeat("a1", 12)

	client := newTestClient("conn-1")
	hub.Bind(client, userID)

	if !hub.IsOnline(userID) {
		t.Error("user not online after bind")
	}

	online := hub.OnlineUsers()
	if len(online[userID]) != 1 || online[userID][0] != "conn-1" {
		t.Errorf("presence snapshot = %v, want conn-1 under user", online)
	}

	hub.Detach(client)
	if hub.IsOnline(userID) {
		t.Error("user still online after last detach")
	}
}

func TestHubMultipleConnectionsPerUser(t *testing.T) {
	hub := newTestHub()
	userID := strings.Repeat("a1", 12)

	first := newTestClient("conn-1")
	second := newTestClient("conn-2")
	hub.Bind(first, userID)
	hub.Bind(second, userID)

	if got := len(hub.OnlineUsers()[userID]); got != 2 {
		t.Errorf("got %d connections, want 2", got)
	}

	// Dropping one tab keeps the user online.
	hub.Detach(first)
	if !hub.IsOnline(userID) {
		t.Error("user offline while a connection remains")
	}
	hub.Detach(second)
	if hub.IsOnline(userID) {
		t.Error("user online with no connections")
	}
}

func TestHubRooms(t *testing.T) {
	hub := newTestHub()
	chatID := strings.Repeat("c3", 12)

	client := newTestClient("conn-1")
	hub.JoinRoom(client, chatID)
	if _, ok := hub.rooms[chatID]["conn-1"]; !ok {
		t.Fatal("connection missing from room after join")
	}

	hub.LeaveRoom(client, chatID)
	if _, ok := hub.rooms[chatID]; ok {
		t.Error("empty room not cleaned up after leave")
	}
}

func TestHubDetachLeavesRooms(t *testing.T) {
	hub := newTestHub()
	chatID := strings.Repeat("c3", 12)
	userID := strings.Repeat("a1", 12)

	client := newTestClient("conn-1")
	hub.Bind(client, userID)
	hub.JoinRoom(client, chatID)

	hub.Detach(client)
	if _, ok := hub.rooms[chatID]; ok {
		t.Error("room retains detached connection")
	}
}

func TestHubIsOnlineUnknownUser(t *testing.T) {
	hub := newTestHub()
	if hub.IsOnline(strings.Repeat("ff", 12)) {
		t.Error("unknown user reported online")
	}
	if hub.Count() != 0 {
		t.Errorf("Count() = %d on fresh hub, want 0", hub.Count())
	}
}
