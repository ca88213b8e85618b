package gallery

import "errors"

var (
	ErrUnauthenticated = errors.New("please sign in to save images")
	ErrInvalidImageURL = errors.New("image url must be an absolute http(s) url on an allowed host")
	ErrFetchImage      = errors.New("failed to fetch image")
	ErrNotFound        = errors.New("image not found")
	ErrImageTooLarge   = errors.New("image too large")
)
