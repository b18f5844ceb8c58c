package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wavelength-chat/wavelength-backend/internal/cache"
	"github.com/wavelength-chat/wavelength-backend/internal/httpx"
	"github.com/wavelength-chat/wavelength-backend/internal/models"
	"github.com/wavelength-chat/wavelength-backend/internal/repository"
)

type UserHandler struct {
	userRepo      repository.UserRepositoryInterface
	presenceCache *cache.PresenceCache
}

func NewUserHandler(userRepo repository.UserRepositoryInterface, presenceCache *cache.PresenceCache) *UserHandler {
	return &UserHandler{userRepo: userRepo, presenceCache: presenceCache}
}

// GetCurrentUser resolves the authenticated identity's profile.
func (h *UserHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	user, err := h.userRepo.FindByID(userID)
	if err != nil {
		return httpx.Error(c, fiber.StatusNotFound, "user_not_found", "User not found")
	}

	return c.JSON(user.ToResponse())
}

type searchUserResult struct {
	models.UserResponse
	IsOnline bool `json:"is_online"`
}

// SearchUsers is the member-picker lookup: matches username, email or
// name, excludes the caller, and annotates online status from the
// presence mirror.
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	userID, err := httpx.LocalUserID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	query := strings.TrimSpace(c.Query("search"))
	if query == "" {
		return httpx.BadRequest(c, "missing_search", "search query is required")
	}

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			limit = l
		}
	}

	users, err := h.userRepo.SearchUsers(query, limit)
	if err != nil {
		return httpx.Internal(c, "user_search_failed")
	}

	results := make([]searchUserResult, 0, len(users))
	for _, user := range users {
		if user.ID == userID {
			continue
		}
		results = append(results, searchUserResult{
			UserResponse: user.ToResponse(),
			IsOnline:     h.presenceCache.IsUserOnline(user.ID),
		})
	}

	return c.JSON(fiber.Map{
		"users": results,
		"count": len(results),
	})
}
