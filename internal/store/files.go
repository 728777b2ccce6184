package store

import (
	"context"

	"github.com/petermazzocco/cloud-vault/models"
	"gorm.io/gorm"
)

type FileStore struct {
	db *gorm.DB
}

func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{db: db}
}

// Create inserts f and fills in its ID and CreatedAt.
func (s *FileStore) Create(ctx context.Context, f *models.File) (*models.File, error) {
	if f.Category == "" {
		f.Category = models.DefaultCategory
	}
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return nil, wrap("create file", err)
	}
	return f, nil
}

// ListAll returns every file record in insertion order.
func (s *FileStore) ListAll(ctx context.Context) ([]models.File, error) {
	files := []models.File{}
	if err := s.db.WithContext(ctx).Order("id").Find(&files).Error; err != nil {
		return nil, wrap("list files", err)
	}
	return files, nil
}
