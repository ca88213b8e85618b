package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/krishkalaria12/snap-gallery/auth"
	"github.com/krishkalaria12/snap-gallery/logger"
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/storage"
)

const logModule = "gallery"

// MaxImageBytes is the largest image Save will copy into the bucket.
const MaxImageBytes = 20 << 20

// DefaultImageHosts are the hosts fal serves generated images from, plus the
// public GCS endpoint. A host also matches its subdomains.
var DefaultImageHosts = []string{"fal.media", "fal.run", "storage.googleapis.com"}

type Service struct {
	store        Store
	bucket       storage.Bucket
	client       *http.Client
	log          logger.ILogger
	now          func() time.Time
	allowedHosts []string
}

type Option func(*Service)

// WithAllowedHosts replaces the hosts Save is willing to fetch from.
func WithAllowedHosts(hosts ...string) Option {
	return func(s *Service) {
		s.allowedHosts = s.allowedHosts[:0]
		for _, h := range hosts {
			h = strings.ToLower(strings.TrimSpace(h))
			if h != "" {
				s.allowedHosts = append(s.allowedHosts, h)
			}
		}
	}
}

func NewService(store Store, bucket storage.Bucket, client *http.Client, log logger.ILogger, opts ...Option) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	s := &Service{
		store:        store,
		bucket:       bucket,
		log:          log,
		now:          time.Now,
		allowedHosts: append([]string(nil), DefaultImageHosts...),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Redirects must stay on allowed hosts too.
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		if !s.hostAllowed(req.URL) {
			return fmt.Errorf("%w: redirect to host %q is not allowed", ErrInvalidImageURL, req.URL.Hostname())
		}
		return nil
	}
	s.client = &c
	return s
}

// ObjectPath is where a saved image for userID lands in the bucket.
func ObjectPath(userID string, t time.Time) string {
	return "user_galleries/" + userID + "/" + strconv.FormatInt(t.UnixNano(), 10) + ".png"
}

// Save re-hosts the image at imageURL in the bucket and records it in the
// owner's gallery. The upload and the insert are not atomic: if the insert
// fails the uploaded object stays in the bucket and is logged.
func (s *Service) Save(ctx context.Context, sess *auth.Session, imageURL, prompt, modelID string) (*models.GalleryImage, error) {
	if sess == nil || sess.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if err := s.validateImageURL(imageURL); err != nil {
		return nil, err
	}

	data, err := s.fetch(ctx, imageURL)
	if err != nil {
		s.log.Error(logModule, "error fetching image", map[string]interface{}{
			"url":   imageURL,
			"error": err,
		})
		return nil, err
	}

	objectPath := ObjectPath(sess.UserID, s.now())
	handle, err := s.bucket.Upload(ctx, objectPath, bytes.NewReader(data), "image/png")
	if err != nil {
		s.log.Error(logModule, "error uploading image", map[string]interface{}{
			"object": objectPath,
			"error":  err,
		})
		return nil, fmt.Errorf("upload image: %w", err)
	}

	durableURL, err := s.bucket.URL(ctx, handle)
	if err != nil {
		s.warnOrphan(objectPath, err)
		return nil, fmt.Errorf("resolve image url: %w", err)
	}

	record := &models.GalleryImage{
		UserID:         sess.UserID,
		Prompt:         prompt,
		ModelID:        modelID,
		ImageURL:       durableURL,
		OriginalFalURL: imageURL,
	}
	if err := s.store.Insert(ctx, record); err != nil {
		s.warnOrphan(objectPath, err)
		return nil, fmt.Errorf("save gallery record: %w", err)
	}

	s.log.Info(logModule, "image saved to gallery", map[string]interface{}{
		"user_id": sess.UserID,
		"id":      record.ID,
		"object":  objectPath,
	})

	return record, nil
}

func (s *Service) List(ctx context.Context, sess *auth.Session) ([]models.GalleryImage, error) {
	if sess == nil || sess.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.ListByOwner(ctx, sess.UserID)
}

func (s *Service) Get(ctx context.Context, sess *auth.Session, id string) (*models.GalleryImage, error) {
	if sess == nil || sess.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.Get(ctx, sess.UserID, id)
}

func (s *Service) warnOrphan(objectPath string, err error) {
	s.log.Warn(logModule, "uploaded object has no gallery record", map[string]interface{}{
		"object": objectPath,
		"error":  err.Error(),
	})
}

func (s *Service) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchImage, err)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchImage, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: received status code %d", ErrFetchImage, res.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchImage, err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrFetchImage, MaxImageBytes)
	}
	return data, nil
}

func (s *Service) validateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ErrInvalidImageURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidImageURL
	}
	if !s.hostAllowed(u) {
		return fmt.Errorf("%w: host %q is not allowed", ErrInvalidImageURL, u.Hostname())
	}
	return nil
}

func (s *Service) hostAllowed(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, allowed := range s.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
