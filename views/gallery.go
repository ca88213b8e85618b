package views

import (
	"github.com/krishkalaria12/snap-gallery/models"
)

type GalleryState string

const (
	GalleryLoading         GalleryState = "loading"
	GalleryUnauthenticated GalleryState = "unauthenticated"
	GalleryError           GalleryState = "error"
	GalleryEmpty           GalleryState = "empty"
	GalleryReady           GalleryState = "ready"
)

const galleryLoadError = "Failed to load your gallery. Please try again later."

type GalleryPage struct {
	Page
	State  GalleryState
	Images []models.GalleryImage
	Error  string
}

// NewGalleryPage starts in the loading state until Resolve runs.
func NewGalleryPage(page Page) GalleryPage {
	return GalleryPage{Page: page, State: GalleryLoading}
}

// Resolve settles the page state. list is only called when signedIn is true,
// and a failed list never shows partial results.
func (p GalleryPage) Resolve(signedIn bool, list func() ([]models.GalleryImage, error)) GalleryPage {
	if !signedIn {
		p.State = GalleryUnauthenticated
		p.Images = nil
		return p
	}

	images, err := list()
	if err != nil {
		p.State = GalleryError
		p.Error = galleryLoadError
		p.Images = nil
		return p
	}

	p.Images = images
	if len(images) == 0 {
		p.State = GalleryEmpty
	} else {
		p.State = GalleryReady
	}
	return p
}
