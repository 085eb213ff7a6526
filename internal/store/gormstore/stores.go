// Package gormstore implements the store interfaces on a relational database
// via GORM. It is the store used by multi-instance deployments; the companion
// sessions table is owned by the scs gormstore session backend.
package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tasktrail/tasktrail/internal/store"
)

// AutoMigrate runs database migrations for the gateway-owned tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&TaskModel{},
	)
}

// UserStore implements store.UserStore using GORM.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *store.User) (*store.User, error) {
	model := UserToModel(user)
	model.ID = 0
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateError(ctx, user)
		}
		return nil, err
	}
	return model.ToUser(), nil
}

// duplicateError decides which unique constraint was hit. The driver error
// carries the constraint name, but probing by lookup keeps this portable
// across databases.
func (s *UserStore) duplicateError(ctx context.Context, user *store.User) error {
	if _, err := s.GetUserByEmail(ctx, user.Email); err == nil {
		return store.ErrDuplicateEmail
	}
	return store.ErrDuplicateUsername
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	result := s.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", userID).
		Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// TaskSeeder implements store.TaskSeeder using GORM.
type TaskSeeder struct {
	db *gorm.DB
}

func NewTaskSeeder(db *gorm.DB) *TaskSeeder {
	return &TaskSeeder{db: db}
}

func (s *TaskSeeder) SeedStarterTasks(ctx context.Context, userID int64) error {
	models := make([]TaskModel, 0, 3)
	for _, task := range store.StarterTasks() {
		models = append(models, TaskModel{
			ID:     uuid.NewString(),
			UserID: userID,
			Title:  task.Title,
			Notes:  task.Notes,
		})
	}
	return s.db.WithContext(ctx).Create(&models).Error
}
