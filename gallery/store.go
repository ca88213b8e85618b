package gallery

import (
	"context"

	"github.com/krishkalaria12/snap-gallery/models"
)

// Store persists gallery records. Implementations assign CreatedAt and, when
// empty, ID on Insert.
type Store interface {
	Insert(ctx context.Context, img *models.GalleryImage) error

	// ListByOwner returns the owner's records, newest first.
	ListByOwner(ctx context.Context, userID string) ([]models.GalleryImage, error)

	// Get returns ErrNotFound unless the record exists and belongs to userID.
	Get(ctx context.Context, userID, id string) (*models.GalleryImage, error)
}
