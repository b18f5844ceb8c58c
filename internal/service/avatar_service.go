package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/wavelength-chat/wavelength-backend/internal/apperr"
	"github.com/wavelength-chat/wavelength-backend/internal/models"
	"github.com/wavelength-chat/wavelength-backend/internal/repository"
	"github.com/wavelength-chat/wavelength-backend/internal/storage"
)

var ErrStorageNotConfigured = errors.New("storage not configured")

// AvatarService processes profile image uploads and keeps the stored
// object in sync with the user row.
type AvatarService struct {
	userRepo repository.UserRepositoryInterface
	blobs    *storage.BlobStore
}

func NewAvatarService(userRepo repository.UserRepositoryInterface, blobs *storage.BlobStore) *AvatarService {
	return &AvatarService{userRepo: userRepo, blobs: blobs}
}

// UploadAvatar validates and downscales an uploaded image, stores it as a
// JPEG object, and records the new key on the user. Returns the updated
// user.
func (s *AvatarService) UploadAvatar(ctx context.Context, userID string, fileReader io.Reader) (*models.User, error) {
	if s.blobs == nil {
		return nil, ErrStorageNotConfigured
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "user_not_found", "user does not exist", err)
	}

	jpegBytes, contentType, outSize, err := storage.ProcessAvatarImage(fileReader, storage.DefaultAvatarOptions())
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s.jpg", userID, uuid.NewString())
	if _, err := s.blobs.PutObject(ctx, key, bytes.NewReader(jpegBytes), outSize, contentType); err != nil {
		return nil, err
	}

	// Keep the old key; delete only after the row update succeeds.
	oldKey := strings.TrimSpace(user.AvatarPath)

	if err := s.userRepo.UpdateAvatarPath(userID, key); err != nil {
		_ = s.blobs.DeleteObject(ctx, key)
		return nil, err
	}
	user.AvatarPath = key

	if oldKey != "" && oldKey != key {
		_ = s.blobs.DeleteObject(ctx, oldKey)
	}

	return user, nil
}

// DeleteAvatar clears the user's avatar reference and removes the stored
// object best-effort. Returns the updated user.
func (s *AvatarService) DeleteAvatar(ctx context.Context, userID string) (*models.User, error) {
	if s.blobs == nil {
		return nil, ErrStorageNotConfigured
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "user_not_found", "user does not exist", err)
	}

	oldKey := strings.TrimSpace(user.AvatarPath)

	if err := s.userRepo.UpdateAvatarPath(userID, ""); err != nil {
		return nil, err
	}
	user.AvatarPath = ""

	if oldKey != "" {
		_ = s.blobs.DeleteObject(ctx, oldKey)
	}

	return user, nil
}
