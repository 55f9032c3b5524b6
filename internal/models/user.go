package models

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors the identity handed to us by the external auth
// collaborator. The chat core never verifies credentials; it only keeps
// the display fields and presence flag it needs.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username string     `gorm:"uniqueIndex;not null" json:"username"`
	FullName string     `json:"full_name"`
	IsOnline bool       `gorm:"default:false" json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

type UserResponse struct {
	ID       uint       `json:"id"`
	Username string     `json:"username"`
	FullName string     `json:"full_name"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		IsOnline: u.IsOnline,
		LastSeen: u.LastSeen,
	}
}
