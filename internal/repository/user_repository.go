package repository

import (
	"gorm.io/gorm"

	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByIDs(ids []string) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *UserRepository) SearchUsers(query string, limit int) ([]models.User, error) {
	var users []models.User
	q := "%" + query + "%"
	err := r.db.
		Where("LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?)", q, q, q, q).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdateAvatarPath(userID, path string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("avatar_path", path).Error
}
