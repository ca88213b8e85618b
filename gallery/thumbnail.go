package gallery

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/gift"
	"github.com/krishkalaria12/snap-gallery/auth"
)

const (
	ThumbnailSize  = 500
	MaxImageWidth  = 4000
	MaxImageHeight = 4000
	JPEGQuality    = 90
)

var thumbnailFilter = gift.New(
	gift.ResizeToFill(ThumbnailSize, ThumbnailSize, gift.LanczosResampling, gift.CenterAnchor),
)

// Thumbnail returns a 500x500 JPEG of one of the owner's saved images.
func (s *Service) Thumbnail(ctx context.Context, sess *auth.Session, id string) ([]byte, error) {
	record, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	data, err := s.fetch(ctx, record.ImageURL)
	if err != nil {
		return nil, err
	}

	src, err := decodeBounded(data)
	if err != nil {
		return nil, err
	}
	return EncodeThumbnail(src)
}

// decodeBounded checks the header dimensions before allocating pixels.
func decodeBounded(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width > MaxImageWidth || cfg.Height > MaxImageHeight {
		return nil, fmt.Errorf("%w (max %dx%d)", ErrImageTooLarge, MaxImageWidth, MaxImageHeight)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return src, nil
}

func EncodeThumbnail(src image.Image) ([]byte, error) {
	dst := image.NewRGBA(thumbnailFilter.Bounds(src.Bounds()))
	thumbnailFilter.Draw(dst, src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
