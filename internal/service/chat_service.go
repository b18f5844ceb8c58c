package service

import (
	"errors"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/wavelength-chat/wavelength-backend/internal/apperr"
	"github.com/wavelength-chat/wavelength-backend/internal/cache"
	"github.com/wavelength-chat/wavelength-backend/internal/models"
	"github.com/wavelength-chat/wavelength-backend/internal/repository"
	"github.com/wavelength-chat/wavelength-backend/internal/validation"
)

// directChatPlaceholderName fills ChatName for direct chats, which render
// under the peer's profile name client-side.
const directChatPlaceholderName = "sender"

type ChatService struct {
	chatRepo  repository.ChatRepositoryInterface
	userRepo  repository.UserRepositoryInterface
	chatCache *cache.ChatCache
}

func NewChatService(chatRepo repository.ChatRepositoryInterface, userRepo repository.UserRepositoryInterface, chatCache *cache.ChatCache) *ChatService {
	return &ChatService{
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		chatCache: chatCache,
	}
}

// GetOrCreateDirectChat returns the unique direct chat between the
// requester and the other user, creating it on first contact. The unique
// pair-key index makes concurrent first contact converge on one chat.
func (s *ChatService) GetOrCreateDirectChat(requesterID, otherUserID string) (*models.Chat, error) {
	if err := validation.RequireID("user_id", otherUserID); err != nil {
		return nil, err
	}
	if otherUserID == requesterID {
		return nil, apperr.InvalidOperation("self_chat", "cannot start a direct chat with yourself")
	}
	if _, err := s.userRepo.FindByID(otherUserID); err != nil {
		return nil, lookupErr(err, "user_not_found", "user not found")
	}

	pairKey := models.DirectPairKey(requesterID, otherUserID)
	chat, err := s.chatRepo.FindDirectByPairKey(pairKey)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unavailable("chat_lookup_failed", err)
	}

	created := &models.Chat{
		ChatName:    directChatPlaceholderName,
		IsGroupChat: false,
		PairKey:     &pairKey,
	}
	if err := s.chatRepo.Create(created, []string{requesterID, otherUserID}, nil); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the creation race: the winner's chat is the chat.
			existing, findErr := s.chatRepo.FindDirectByPairKey(pairKey)
			if findErr != nil {
				return nil, apperr.Unavailable("chat_lookup_failed", findErr)
			}
			return existing, nil
		}
		return nil, apperr.Unavailable("chat_create_failed", err)
	}

	s.invalidateChatLists(requesterID, otherUserID)
	return s.reload(created.ID)
}

// CreateGroupChat creates a group with the requester as a member and the
// sole initial admin, followed by the given members in order.
func (s *ChatService) CreateGroupChat(requesterID, name string, memberIDs []string) (*models.Chat, error) {
	name, err := validation.NormalizeGroupName(name)
	if err != nil {
		return nil, err
	}
	if len(memberIDs) == 0 {
		return nil, apperr.Validation("missing_users", "at least one member is required")
	}
	for _, id := range memberIDs {
		if err := validation.RequireID("user_id", id); err != nil {
			return nil, err
		}
	}
	if len(lo.Uniq(memberIDs)) != len(memberIDs) {
		return nil, apperr.Validation("duplicate_users", "member list contains duplicates")
	}
	if lo.Contains(memberIDs, requesterID) {
		return nil, apperr.InvalidOperation("duplicate_requester",
			"the requester is added automatically and must not appear in the member list")
	}
	if err := s.requireUsersExist(memberIDs); err != nil {
		return nil, err
	}

	chat := &models.Chat{
		ChatName:    name,
		IsGroupChat: true,
	}
	members := append([]string{requesterID}, memberIDs...)
	if err := s.chatRepo.Create(chat, members, []string{requesterID}); err != nil {
		return nil, apperr.Unavailable("chat_create_failed", err)
	}

	s.invalidateChatLists(members...)
	return s.reload(chat.ID)
}

// RenameGroupChat changes the group name. Per the authorization policy
// table, only admins rename.
func (s *ChatService) RenameGroupChat(chatID, newName, requesterID string) (*models.Chat, error) {
	newName, err := validation.NormalizeGroupName(newName)
	if err != nil {
		return nil, err
	}
	chat, err := s.requireGroupChat(chatID)
	if err != nil {
		return nil, err
	}
	if err := authorize(chat, requesterID, OpRenameGroup); err != nil {
		return nil, err
	}
	if err := s.chatRepo.Rename(chatID, newName); err != nil {
		return nil, apperr.Unavailable("chat_rename_failed", err)
	}

	s.invalidateChatLists(chat.ParticipantIDs()...)
	return s.reload(chatID)
}

// ListChats returns every chat the user belongs to, newest activity
// first, each with the user's unread count.
func (s *ChatService) ListChats(userID string) ([]models.ChatSummary, error) {
	if cached, ok := s.chatCache.GetChatList(userID); ok {
		return cached, nil
	}

	chats, err := s.chatRepo.ListForUser(userID)
	if err != nil {
		return nil, apperr.Unavailable("chat_list_failed", err)
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		unread, err := s.chatRepo.UnreadCount(chat.ID, userID)
		if err != nil {
			return nil, apperr.Unavailable("unread_count_failed", err)
		}
		summaries = append(summaries, models.ChatSummary{Chat: chat, UnreadCount: unread})
	}

	_ = s.chatCache.SetChatList(userID, summaries)
	return summaries, nil
}

// AddMember adds a user to a group chat.
func (s *ChatService) AddMember(chatID, userID, requesterID string) (*models.Chat, error) {
	if err := validation.RequireID("user_id", userID); err != nil {
		return nil, err
	}
	chat, err := s.requireGroupChat(chatID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, lookupErr(err, "user_not_found", "user not found")
	}
	if err := authorize(chat, requesterID, OpAddMember); err != nil {
		return nil, err
	}
	if chat.HasMember(userID) || chat.HasAdmin(userID) {
		return nil, apperr.Conflict("already_member", "user is already in this chat")
	}
	if err := s.chatRepo.AddMember(chatID, userID); err != nil {
		return nil, apperr.Unavailable("add_member_failed", err)
	}

	s.invalidateChatLists(append(chat.ParticipantIDs(), userID)...)
	return s.reload(chatID)
}

// RemoveMember pulls a user out of a group chat. Admins remove anyone;
// any member may remove themself, except the sole remaining admin, who
// must delegate first. Removal demotes the target's admin standing too.
func (s *ChatService) RemoveMember(chatID, userID, requesterID string) (*models.Chat, error) {
	if err := validation.RequireID("user_id", userID); err != nil {
		return nil, err
	}
	chat, err := s.requireGroupChat(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasMember(userID) {
		return nil, apperr.NotFound("member_not_found", "user is not a member of this chat")
	}
	if requesterID != userID {
		if err := authorize(chat, requesterID, OpRemoveMember); err != nil {
			return nil, err
		}
	}
	if chat.HasAdmin(userID) {
		count, err := s.chatRepo.AdminCount(chatID)
		if err != nil {
			return nil, apperr.Unavailable("admin_count_failed", err)
		}
		if count <= 1 {
			return nil, apperr.InvalidOperation("sole_admin",
				"assign another group admin before leaving the chat")
		}
	}
	if err := s.chatRepo.RemoveMember(chatID, userID); err != nil {
		return nil, apperr.Unavailable("remove_member_failed", err)
	}

	s.invalidateChatLists(chat.ParticipantIDs()...)
	return s.reload(chatID)
}

// ReplaceMembers overwrites the member set wholesale, preserving the
// given order for display.
func (s *ChatService) ReplaceMembers(chatID string, newMemberIDs []string, requesterID string) (*models.Chat, error) {
	chat, err := s.requireGroupChat(chatID)
	if err != nil {
		return nil, err
	}
	if err := authorize(chat, requesterID, OpReplaceMembers); err != nil {
		return nil, err
	}
	for _, id := range newMemberIDs {
		if err := validation.RequireID("user_id", id); err != nil {
			return nil, err
		}
	}
	if len(lo.Uniq(newMemberIDs)) != len(newMemberIDs) {
		return nil, apperr.Validation("duplicate_users", "member list contains duplicates")
	}
	if len(newMemberIDs) > 0 {
		if err := s.requireUsersExist(newMemberIDs); err != nil {
			return nil, err
		}
	}
	if err := s.chatRepo.ReplaceMembers(chatID, newMemberIDs); err != nil {
		return nil, apperr.Unavailable("replace_members_failed", err)
	}

	s.invalidateChatLists(append(chat.ParticipantIDs(), newMemberIDs...)...)
	return s.reload(chatID)
}

// ReplaceAdmins overwrites the admin set wholesale. The set may never end
// up empty: a group without admins has nobody left to fix it.
func (s *ChatService) ReplaceAdmins(chatID string, newAdminIDs []string, requesterID string) (*models.Chat, error) {
	chat, err := s.requireGroupChat(chatID)
	if err != nil {
		return nil, err
	}
	if err := authorize(chat, requesterID, OpReplaceAdmins); err != nil {
		return nil, err
	}
	for _, id := range newAdminIDs {
		if err := validation.RequireID("user_id", id); err != nil {
			return nil, err
		}
	}
	newAdminIDs = lo.Uniq(newAdminIDs)
	if len(newAdminIDs) == 0 {
		return nil, apperr.InvalidOperation("no_admins_left",
			"a group chat must keep at least one admin")
	}
	if err := s.requireUsersExist(newAdminIDs); err != nil {
		return nil, err
	}
	if err := s.chatRepo.ReplaceAdmins(chatID, newAdminIDs); err != nil {
		return nil, apperr.Unavailable("replace_admins_failed", err)
	}

	s.invalidateChatLists(append(chat.ParticipantIDs(), newAdminIDs...)...)
	return s.reload(chatID)
}

// GetChatForParticipant loads a chat the requester belongs to. The
// realtime fan-out uses it to resolve recipients from a trusted source
// instead of the client payload.
func (s *ChatService) GetChatForParticipant(chatID, requesterID string) (*models.Chat, error) {
	if err := validation.RequireID("chat_id", chatID); err != nil {
		return nil, err
	}
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		return nil, lookupErr(err, "chat_not_found", "chat not found")
	}
	if !chat.HasMember(requesterID) && !chat.HasAdmin(requesterID) {
		return nil, apperr.Forbidden("not_participant", "you are not part of this chat")
	}
	return chat, nil
}

// CheckParticipant verifies membership without loading the full chat.
// Realtime events that only gate on membership use this instead of
// GetChatForParticipant to skip the association preloads.
func (s *ChatService) CheckParticipant(chatID, requesterID string) error {
	if err := validation.RequireID("chat_id", chatID); err != nil {
		return err
	}
	ok, err := s.chatRepo.IsParticipant(chatID, requesterID)
	if err != nil {
		return apperr.Unavailable("chat_lookup_failed", err)
	}
	if !ok {
		return apperr.Forbidden("not_participant", "you are not part of this chat")
	}
	return nil
}

func (s *ChatService) requireGroupChat(chatID string) (*models.Chat, error) {
	if err := validation.RequireID("chat_id", chatID); err != nil {
		return nil, err
	}
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		return nil, lookupErr(err, "chat_not_found", "chat not found")
	}
	if !chat.IsGroupChat {
		return nil, apperr.NotFound("chat_not_found", "group chat not found")
	}
	return chat, nil
}

func (s *ChatService) requireUsersExist(ids []string) error {
	users, err := s.userRepo.FindByIDs(ids)
	if err != nil {
		return apperr.Unavailable("user_lookup_failed", err)
	}
	if len(users) != len(ids) {
		return apperr.NotFound("user_not_found", "one or more users do not exist")
	}
	return nil
}

func (s *ChatService) reload(chatID string) (*models.Chat, error) {
	chat, err := s.chatRepo.FindByID(chatID)
	if err != nil {
		return nil, apperr.Unavailable("chat_reload_failed", err)
	}
	return chat, nil
}

func (s *ChatService) invalidateChatLists(userIDs ...string) {
	_ = s.chatCache.InvalidateChatLists(userIDs...)
}

// lookupErr classifies a storage lookup failure: a missing row is
// NotFound, anything else means storage is unhealthy.
func lookupErr(err error, code, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(code, message)
	}
	return apperr.Unavailable(code+"_lookup", err)
}
