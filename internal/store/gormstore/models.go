package gormstore

import (
	"time"

	"github.com/tasktrail/tasktrail/internal/store"
)

// UserModel is the GORM model for users.
type UserModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"uniqueIndex;size:64;not null"`
	Email        string    `gorm:"uniqueIndex;size:255;not null"`
	DisplayName  string    `gorm:"size:255"`
	PhotoURL     string    `gorm:"size:1024"`
	ProviderID   string    `gorm:"size:128;index"`
	PasswordHash string    `gorm:"size:128"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *store.User {
	return &store.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		PhotoURL:     m.PhotoURL,
		ProviderID:   m.ProviderID,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func UserToModel(u *store.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PhotoURL:     u.PhotoURL,
		ProviderID:   u.ProviderID,
		PasswordHash: u.PasswordHash,
	}
}

// TaskModel is the GORM model for tasks. The gateway only inserts starter
// rows; everything else about this table belongs to the task subsystem.
type TaskModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    int64     `gorm:"index;not null"`
	Title     string    `gorm:"size:255;not null"`
	Notes     string    `gorm:"type:text"`
	Completed bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (TaskModel) TableName() string {
	return "tasks"
}
