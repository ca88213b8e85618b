package gallery

import (
	"context"
	"errors"

	"github.com/krishkalaria12/snap-gallery/models"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, img *models.GalleryImage) error {
	img.CreatedAt = s.db.NowFunc()
	return s.db.WithContext(ctx).Create(img).Error
}

func (s *GormStore) ListByOwner(ctx context.Context, userID string) ([]models.GalleryImage, error) {
	var images []models.GalleryImage
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (s *GormStore) Get(ctx context.Context, userID, id string) (*models.GalleryImage, error) {
	var image models.GalleryImage
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &image, nil
}
