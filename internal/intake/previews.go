package intake

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"artesanos/internal/compress"
)

// PreviewPrefix starts every locally issued preview reference.
const PreviewPrefix = "/previews/"

// Previews issues short-lived local references to not yet uploaded images.
type Previews interface {
	Create(b *compress.Blob) string
	Release(ref string)
}

// MemoryPreviews keeps preview bytes in process until released.
type MemoryPreviews struct {
	mu    sync.RWMutex
	blobs map[string]*compress.Blob
}

func NewMemoryPreviews() *MemoryPreviews {
	return &MemoryPreviews{blobs: make(map[string]*compress.Blob)}
}

func (p *MemoryPreviews) Create(b *compress.Blob) string {
	key := uuid.NewString()
	p.mu.Lock()
	p.blobs[key] = b
	p.mu.Unlock()
	return PreviewPrefix + key
}

func (p *MemoryPreviews) Release(ref string) {
	key, ok := strings.CutPrefix(ref, PreviewPrefix)
	if !ok {
		return
	}
	p.mu.Lock()
	delete(p.blobs, key)
	p.mu.Unlock()
}

// Lookup resolves a preview key (without prefix) to its bytes.
func (p *MemoryPreviews) Lookup(key string) (*compress.Blob, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.blobs[key]
	return b, ok
}

func (p *MemoryPreviews) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.blobs)
}
