// internal/blogapi/images.go
//
// In-memory image storage for uploads.
// Images are lost when the process restarts, which is fine for local
// development and tests.

package blogapi

import (
	"context"
	"sync"
)

// Image is a stored upload.
type Image struct {
	ContentType string
	Data        []byte
}

// ImageStore persists uploaded images by name.
type ImageStore interface {
	Save(ctx context.Context, name string, img Image) error
	// Get returns errNotFound for unknown names.
	Get(ctx context.Context, name string) (Image, error)
}

// memoryImages is a map-based ImageStore.
type memoryImages struct {
	mu     sync.RWMutex     // guards images
	images map[string]Image // keyed by stored name
}

// NewMemoryImages constructs an empty in-memory ImageStore.
func NewMemoryImages() ImageStore {
	return &memoryImages{images: make(map[string]Image)}
}

func (m *memoryImages) Save(_ context.Context, name string, img Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[name] = img
	return nil
}

func (m *memoryImages) Get(_ context.Context, name string) (Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if img, ok := m.images[name]; ok {
		return img, nil
	}
	return Image{}, errNotFound
}
