package service

import (
	"github.com/wavelength-chat/wavelength-backend/internal/apperr"
	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

// Operation names a mutating chat-service call for authorization.
type Operation string

const (
	OpRenameGroup    Operation = "chat.rename"
	OpAddMember      Operation = "chat.add_member"
	OpRemoveMember   Operation = "chat.remove_member"
	OpReplaceMembers Operation = "chat.replace_members"
	OpReplaceAdmins  Operation = "chat.replace_admins"
)

// Role is the minimum standing a requester needs in the chat.
type Role int

const (
	RoleMember Role = iota
	RoleAdmin
)

// mutationPolicy is the single authority table consulted by every
// mutating operation. Group mutations uniformly require admin standing;
// the one exception, self-removal, is handled where it applies rather
// than here.
var mutationPolicy = map[Operation]Role{
	OpRenameGroup:    RoleAdmin,
	OpAddMember:      RoleAdmin,
	OpRemoveMember:   RoleAdmin,
	OpReplaceMembers: RoleAdmin,
	OpReplaceAdmins:  RoleAdmin,
}

// RequiredRole returns the role the policy table demands for op.
// Unknown operations default to admin, the stricter standing.
func RequiredRole(op Operation) Role {
	if role, ok := mutationPolicy[op]; ok {
		return role
	}
	return RoleAdmin
}

// authorize checks the requester's standing in the chat against the
// policy table.
func authorize(chat *models.Chat, requesterID string, op Operation) error {
	switch RequiredRole(op) {
	case RoleAdmin:
		if chat.HasAdmin(requesterID) {
			return nil
		}
	case RoleMember:
		if chat.HasMember(requesterID) || chat.HasAdmin(requesterID) {
			return nil
		}
	}
	return apperr.Forbidden("not_authorized", "you do not have permission to perform this action")
}
