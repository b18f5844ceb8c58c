package models

import (
	"time"
)

// User rows are owned by the identity provider; the chat core only reads
// them to resolve ids and render profiles.
type User struct {
	ID        string    `gorm:"type:char(24);primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	AvatarPath   string `json:"avatar_path"`
}

// UserResponse is the wire shape of a user. PasswordHash never leaves the
// process; everything client-facing goes through here.
type UserResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	AvatarPath string `json:"avatar_path"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		AvatarPath: u.AvatarPath,
	}
}
