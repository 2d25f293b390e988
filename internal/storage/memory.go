package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"catalog-service/internal/models"
)

// MemoryImageStore keeps images in process memory. Used when no bucket is configured.
type MemoryImageStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

func NewMemoryImageStore(baseURL string) *MemoryImageStore {
	return &MemoryImageStore{baseURL: baseURL, objects: map[string][]byte{}}
}

func (m *MemoryImageStore) Put(ctx context.Context, tenantID string, upload models.ImageUpload) (models.VariantImage, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, upload.Body)
	if err != nil {
		return models.VariantImage{}, fmt.Errorf("failed to read image: %w", err)
	}
	key := objectKey(tenantID, upload.Filename)

	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()

	return models.VariantImage{Ref: key, URL: m.baseURL + "/" + key, ContentType: upload.ContentType, Size: n}, nil
}

func (m *MemoryImageStore) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	return nil
}

// Get returns the stored bytes of an image
func (m *MemoryImageStore) Get(ref string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[ref]
	return data, ok
}
