package service

import (
	"strings"
	"testing"

	"github.com/wavelength-chat/wavelength-backend/internal/apperr"
	"github.com/wavelength-chat/wavelength-backend/internal/cache"
	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

var (
	userAlice = strings.Repeat("a1", 12)
	userBob   = strings.Repeat("b2", 12)
	userCarol = strings.Repeat("c3", 12)
	userDave  = strings.Repeat("d4", 12)
)

func newChatServiceFixture() (*ChatService, *MockChatRepository, *MockUserRepository) {
	msgs := NewMockMessageRepository()
	chatRepo := NewMockChatRepository(msgs)
	userRepo := NewMockUserRepository()
	userRepo.Add(&models.User{ID: userAlice, Username: "alice", Email: "alice@example.com"})
	userRepo.Add(&models.User{ID: userBob, Username: "bob", Email: "bob@example.com"})
	userRepo.Add(&models.User{ID: userCarol, Username: "carol", Email: "carol@example.com"})
	userRepo.Add(&models.User{ID: userDave, Username: "dave", Email: "dave@example.com"})
	return NewChatService(chatRepo, userRepo, cache.NewChatCache(nil)), chatRepo, userRepo
}

func mustCreateGroup(t *testing.T, svc *ChatService, requester, name string, members []string) *models.Chat {
	t.Helper()
	chat, err := svc.CreateGroupChat(requester, name, members)
	if err != nil {
		t.Fatalf("CreateGroupChat failed: %v", err)
	}
	return chat
}

func TestGetOrCreateDirectChat(t *testing.T) {
	tests := []struct {
		name        string
		requesterID string
		otherID     string
		wantKind    apperr.Kind
		wantCode    string
	}{
		{"Malformed id is validation not not-found", userAlice, "not-a-hex-id", apperr.KindValidation, "invalid_user_id"},
		{"Self chat rejected", userAlice, userAlice, apperr.KindInvalidOperation, "self_chat"},
		{"Unknown user", userAlice, strings.Repeat("ee", 12), apperr.KindNotFound, "user_not_found"},
		{"First contact creates", userAlice, userBob, apperr.KindInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newChatServiceFixture()
			chat, err := svc.GetOrCreateDirectChat(tt.requesterID, tt.otherID)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("expected error, got chat %+v", chat)
				}
				if apperr.KindOf(err) != tt.wantKind || apperr.CodeOf(err) != tt.wantCode {
					t.Errorf("got kind=%v code=%q, want kind=%v code=%q", apperr.KindOf(err), apperr.CodeOf(err), tt.wantKind, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if chat.IsGroupChat {
				t.Error("direct chat created as group")
			}
			if len(chat.Members) != 2 {
				t.Errorf("got %d members, want 2", len(chat.Members))
			}
			if len(chat.Admins) != 0 {
				t.Errorf("direct chat has %d admins, want 0", len(chat.Admins))
			}
		})
	}
}

func TestGetOrCreateDirectChatIdempotent(t *testing.T) {
	svc, _, _ := newChatServiceFixture()

	first, err := svc.GetOrCreateDirectChat(userAlice, userBob)
	if err != nil {
		t.Fatalf("first contact failed: %v", err)
	}
	second, err := svc.GetOrCreateDirectChat(userAlice, userBob)
	if err != nil {
		t.Fatalf("repeat contact failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("repeat contact created new chat: %s vs %s", first.ID, second.ID)
	}

	// The pair is unordered: contact from the other side lands in the
	// same chat.
	reversed, err := svc.GetOrCreateDirectChat(userBob, userAlice)
	if err != nil {
		t.Fatalf("reversed contact failed: %v", err)
	}
	if reversed.ID != first.ID {
		t.Errorf("reversed contact created new chat: %s vs %s", reversed.ID, first.ID)
	}
}

func TestCreateGroupChat(t *testing.T) {
	tests := []struct {
		name      string
		chatName  string
		memberIDs []string
		wantCode  string
	}{
		{"Name too short", "ab", []string{userBob}, "invalid_chat_name"},
		{"Name too long", strings.Repeat("x", 51), []string{userBob}, "invalid_chat_name"},
		{"Empty member list", "Weekend Plans", nil, "missing_users"},
		{"Malformed member id", "Weekend Plans", []string{"garbage"}, "invalid_user_id"},
		{"Duplicate members", "Weekend Plans", []string{userBob, userBob}, "duplicate_users"},
		{"Requester in member list", "Weekend Plans", []string{userAlice, userBob}, "duplicate_requester"},
		{"Unknown member", "Weekend Plans", []string{strings.Repeat("ee", 12)}, "user_not_found"},
		{"Valid group", "Weekend Plans", []string{userBob, userCarol}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newChatServiceFixture()
			chat, err := svc.CreateGroupChat(userAlice, tt.chatName, tt.memberIDs)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("expected error, got chat %+v", chat)
				}
				if apperr.CodeOf(err) != tt.wantCode {
					t.Errorf("got code %q, want %q", apperr.CodeOf(err), tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !chat.IsGroupChat {
				t.Error("group chat created as direct")
			}
			// Requester leads the member list, then the given order.
			want := []string{userAlice, userBob, userCarol}
			got := chat.MemberIDs()
			if len(got) != len(want) {
				t.Fatalf("got %d members, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("member[%d] = %s, want %s", i, got[i], want[i])
				}
			}
			if !chat.HasAdmin(userAlice) || len(chat.Admins) != 1 {
				t.Errorf("admins = %v, want requester only", chat.AdminIDs())
			}
		})
	}
}

func TestRenameGroupChat(t *testing.T) {
	svc, _, _ := newChatServiceFixture()
	group := mustCreateGroup(t, svc, userAlice, "Old Name", []string{userBob, userCarol})

	tests := []struct {
		name        string
		chatID      string
		newName     string
		requesterID string
		wantKind    apperr.Kind
		wantCode    string
	}{
		{"Non-admin member cannot rename", group.ID, "New Name", userBob, apperr.KindForbidden, "not_authorized"},
		{"Outsider cannot rename", group.ID, "New Name", userDave, apperr.KindForbidden, "not_authorized"},
		{"Invalid name", group.ID, "x", userAlice, apperr.KindValidation, "invalid_chat_name"},
		{"Unknown chat", strings.Repeat("ff", 12), "New Name", userAlice, apperr.KindNotFound, "chat_not_found"},
		{"Admin renames", group.ID, "  New Name  ", userAlice, apperr.KindInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat, err := svc.RenameGroupChat(tt.chatID, tt.newName, tt.requesterID)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("expected error, got chat %+v", chat)
				}
				if apperr.KindOf(err) != tt.wantKind || apperr.CodeOf(err) != tt.wantCode {
					t.Errorf("got kind=%v code=%q, want kind=%v code=%q", apperr.KindOf(err), apperr.CodeOf(err), tt.wantKind, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if chat.ChatName != "New Name" {
				t.Errorf("name = %q, want trimmed %q", chat.ChatName, "New Name")
			}
		})
	}
}

func TestRenameRejectsDirectChat(t *testing.T) {
	svc, _, _ := newChatServiceFixture()
	direct, err := svc.GetOrCreateDirectChat(userAlice, userBob)
	if err != nil {
		t.Fatalf("direct chat setup failed: %v", err)
	}

	_, err = svc.RenameGroupChat(direct.ID, "New Name", userAlice)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("renaming a direct chat: got %v, want not-found", err)
	}
}

func TestAddMember(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		requesterID string
		wantKind    apperr.Kind
		wantCode    string
	}{
		{"Non-admin cannot add", userDave, userBob, apperr.KindForbidden, "not_authorized"},
		{"Already a member", userBob, userAlice, apperr.KindConflict, "already_member"},
		{"Already an admin", userAlice, userAlice, apperr.KindConflict, "already_member"},
		{"Unknown user", strings.Repeat("ee", 12), userAlice, apperr.KindNotFound, "user_not_found"},
		{"Admin adds", userDave, userAlice, apperr.KindInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newChatServiceFixture()
			group := mustCreateGroup(t, svc, userAlice, "Weekend Plans", []string{userBob, userCarol})

			chat, err := svc.AddMember(group.ID, tt.userID, tt.requesterID)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("expected error, got chat %+v", chat)
				}
				if apperr.KindOf(err) != tt.wantKind || apperr.CodeOf(err) != tt.wantCode {
					t.Errorf("got kind=%v code=%q, want kind=%v code=%q", apperr.KindOf(err), apperr.CodeOf(err), tt.wantKind, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ids := chat.MemberIDs()
			if ids[len(ids)-1] != tt.userID {
				t.Errorf("new member not appended last: %v", ids)
			}
		})
	}
}

func TestRemoveMember(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		requesterID string
		wantKind    apperr.Kind
		wantCode    string
	}{
		{"Not a member", userDave, userAlice, apperr.KindNotFound, "member_not_found"},
		{"Non-admin cannot remove others", userCarol, userBob, apperr.KindForbidden, "not_authorized"},
		{"Member removes self", userBob, userBob, apperr.KindInternal, ""},
		{"Admin removes member", userCarol, userAlice, apperr.KindInternal, ""},
		{"Sole admin cannot leave", userAlice, userAlice, apperr.KindInvalidOperation, "sole_admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newChatServiceFixture()
			group := mustCreateGroup(t, svc, userAlice, "Weekend Plans", []string{userBob, userCarol})

			chat, err := svc.RemoveMember(group.ID, tt.userID, tt.requesterID)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("expected error, got chat %+v", chat)
				}
				if apperr.KindOf(err) != tt.wantKind || apperr.CodeOf(err) != tt.wantCode {
					t.Errorf("got kind=%v code=%q, want kind=%v code=%q", apperr.KindOf(err), apperr.CodeOf(err), tt.wantKind, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if chat.HasMember(tt.userID) {
				t.Errorf("user %s still a member after removal", tt.userID)
			}
		})
	}
}

func TestRemoveMemberDemotesAdmin(t *testing.T) {
	svc, _, _ := newChatServiceFixture()
	group := mustCreateGroup(t, svc, userAlice, "Weekend Plans", []string{userBob, userCarol})

	// Promote Bob so there are two admins, then remove him.
	if _, err := svc.ReplaceAdmins(group.ID, []string{userAlice, userBob}, userAlice); err != nil {
		t.Fatalf("ReplaceAdmins failed: %v", err)
	}
	chat, err := svc.RemoveMember(group.ID, userBob, userAlice)
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if chat.HasAdmin(userBob) {
		t.Error("removed member still holds admin standing")
	}
	if !chat.HasAdmin(userAlice) {
		t.Error("remaining admin lost standing")
	}
}

func TestReplaceMembers(t *testing.T) {
	tests := []struct {
		name        string
		newMembers  []string
		requesterID string
		wantCode    string
	}{
		{"Non-admin cannot replace", []string{userBob}, userBob, "not_authorized"},
		{"Duplicates rejected", []string{userBob, userBob}, userAlice, "duplicate_users"},
		{"Unknown user", []string{strings.Repeat("ee", 12)}, userAlice, "user_not_found"},
		{"Order preserved", []string{userDave, userBob}, userAlice, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newChatServiceFixture()
			group := mustCreateGroup(t, svc, userAlice, "Weekend Plans", []string{userBob, userCarol})

			chat, err := svc.ReplaceMembers(group.ID, tt.newMembers, tt.requesterID)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("expected error, got chat %+v", chat)
				}
				if apperr.CodeOf(err) != tt.wantCode {
					t.Errorf("got code %q, want %q", apperr.CodeOf(err), tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := chat.MemberIDs()
			if len(got) != len(tt.newMembers) {
				t.Fatalf("got %d members, want %d", len(got), len(tt.newMembers))
			}
			for i := range tt.newMembers {
				if got[i] != tt.newMembers[i] {
					t.Errorf("member[%d] = %s, want %s", i, got[i], tt.newMembers[i])
				}
			}
		})
	}
}

func TestReplaceAdmins(t *testing.T) {
	tests := []struct {
		name        string
		newAdmins   []string
		requesterID string
		wantKind    apperr.Kind
		wantCode    string
	}{
		{"Non-admin cannot replace", []string{userBob}, userBob, apperr.KindForbidden, "not_authorized"},
		{"Empty admin set rejected", nil, userAlice, apperr.KindInvalidOperation, "no_admins_left"},
		{"Unknown user", []string{strings.Repeat("ee", 12)}, userAlice, apperr.KindNotFound, "user_not_found"},
		{"Admin hands over", []string{userBob}, userAlice, apperr.KindInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newChatServiceFixture()
			group := mustCreateGroup(t, svc, userAlice, "Weekend Plans", []string{userBob, userCarol})

			chat, err := svc.ReplaceAdmins(group.ID, tt.newAdmins, tt.requesterID)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("expected error, got chat %+v", chat)
				}
				if apperr.KindOf(err) != tt.wantKind || apperr.CodeOf(err) != tt.wantCode {
					t.Errorf("got kind=%v code=%q, want kind=%v code=%q", apperr.KindOf(err), apperr.CodeOf(err), tt.wantKind, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !chat.HasAdmin(userBob) || chat.HasAdmin(userAlice) {
				t.Errorf("admins = %v, want only %s", chat.AdminIDs(), userBob)
			}
		})
	}
}

func TestListChats(t *testing.T) {
	svc, _, _ := newChatServiceFixture()
	mustCreateGroup(t, svc, userAlice, "Weekend Plans", []string{userBob})
	if _, err := svc.GetOrCreateDirectChat(userAlice, userCarol); err != nil {
		t.Fatalf("direct chat setup failed: %v", err)
	}

	summaries, err := svc.ListChats(userAlice)
	if err != nil {
		t.Fatalf("ListChats failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Errorf("got %d chats, want 2", len(summaries))
	}

	// Carol sees only the direct chat.
	summaries, err = svc.ListChats(userCarol)
	if err != nil {
		t.Fatalf("ListChats failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("got %d chats, want 1", len(summaries))
	}
}

func TestGetChatForParticipant(t *testing.T) {
	svc, _, _ := newChatServiceFixture()
	group := mustCreateGroup(t, svc, userAlice, "Weekend Plans", []string{userBob})

	if _, err := svc.GetChatForParticipant(group.ID, userBob); err != nil {
		t.Errorf("member rejected: %v", err)
	}
	if _, err := svc.GetChatForParticipant(group.ID, userAlice); err != nil {
		t.Errorf("admin rejected: %v", err)
	}
	_, err := svc.GetChatForParticipant(group.ID, userDave)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("outsider: got %v, want forbidden", err)
	}
}

func TestCheckParticipant(t *testing.T) {
	svc, _, _ := newChatServiceFixture()
	group := mustCreateGroup(t, svc, userAlice, "Weekend Plans", []string{userBob})

	if err := svc.CheckParticipant(group.ID, userBob); err != nil {
		t.Errorf("member rejected: %v", err)
	}
	if err := svc.CheckParticipant(group.ID, userAlice); err != nil {
		t.Errorf("admin rejected: %v", err)
	}
	if err := svc.CheckParticipant(group.ID, userDave); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("outsider: got %v, want forbidden", err)
	}
	if err := svc.CheckParticipant("nope", userAlice); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("malformed id: got %v, want validation", err)
	}
}
