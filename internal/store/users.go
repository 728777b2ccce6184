package store

import (
	"context"

	"github.com/petermazzocco/cloud-vault/models"
	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByUsername returns apperr.ErrNotFound when no user has that name.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, wrap("find user by username", err)
	}
	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, wrap("find user by id", err)
	}
	return &u, nil
}

func (s *UserStore) FindFirstAdmin(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("role = ?", models.RoleAdmin).Order("id").First(&u).Error; err != nil {
		return nil, wrap("find admin", err)
	}
	return &u, nil
}

// Create inserts a user. A taken username yields an error matching
// apperr.ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, username, passwordHash, role string) (*models.User, error) {
	u := &models.User{
		Username: username,
		Password: passwordHash,
		Role:     role,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, wrap("create user", err)
	}
	return u, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, wrap("count users", err)
	}
	return n, nil
}
