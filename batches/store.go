// Package batches keeps the most recent generation results in memory so the
// generator page can render and act on them across requests.
package batches

import (
	"time"

	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-gallery/slots"
	"github.com/patrickmn/go-cache"
)

// Batch is one completed generation: a prompt, a model and one URL per slot.
type Batch struct {
	ID        string
	Prompt    string
	ModelID   string
	URLs      []string
	Slots     *slots.Board
	CreatedAt time.Time
}

// URL returns the image URL of slot i.
func (b *Batch) URL(i int) (string, bool) {
	if i < 0 || i >= len(b.URLs) {
		return "", false
	}
	return b.URLs[i], true
}

type Store struct {
	cache     *cache.Cache
	boardOpts []slots.Option
}

func NewStore(ttl time.Duration, boardOpts ...slots.Option) *Store {
	return &Store{
		cache:     cache.New(ttl, 10*time.Minute),
		boardOpts: boardOpts,
	}
}

// Create stores a new batch for urls and returns it.
func (s *Store) Create(prompt, modelID string, urls []string) *Batch {
	b := &Batch{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		ModelID:   modelID,
		URLs:      urls,
		Slots:     slots.NewBoard(len(urls), s.boardOpts...),
		CreatedAt: time.Now().UTC(),
	}
	s.cache.Set(b.ID, b, cache.DefaultExpiration)
	return b
}

func (s *Store) Get(id string) (*Batch, bool) {
	if x, found := s.cache.Get(id); found {
		return x.(*Batch), true
	}
	return nil, false
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}
