package intake

import (
	"fmt"

	"github.com/google/uuid"

	"artesanos/internal/compress"
)

// MaxImages is the most images a product can carry.
const MaxImages = 5

// OversizedBytes marks files that are accepted but flagged as heavy.
const OversizedBytes = 5 * 1024 * 1024

var acceptedTypes = map[string]bool{
	compress.ContentTypeJPEG: true,
	compress.ContentTypePNG:  true,
	compress.ContentTypeWebP: true,
}

type Status string

const (
	StatusExisting  Status = "existing"
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

// Item is one image attached, or being attached, to a product.
type Item struct {
	ID        string         `json:"id"`
	Source    *compress.Blob `json:"-"`
	Preview   string         `json:"preview"`
	RemoteURL string         `json:"url,omitempty"`
	Status    Status         `json:"status"`
	Progress  int            `json:"progress"`
	Err       string         `json:"error,omitempty"`
}

// Persisted reports whether the item already has a durable URL.
func (it Item) Persisted() bool {
	return (it.Status == StatusExisting || it.Status == StatusDone) && it.RemoteURL != ""
}

// Sequence is an immutable ordered list of items. Every operation returns a
// new Sequence and never touches the receiver's backing array.
type Sequence struct {
	items []Item
}

func NewSequence(items ...Item) Sequence {
	return Sequence{items: append([]Item(nil), items...)}
}

// LoadExisting builds a sequence of already persisted images, in order. Empty
// URLs are skipped and at most MaxImages are kept.
func LoadExisting(urls []string) Sequence {
	items := make([]Item, 0, min(len(urls), MaxImages))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if len(items) == MaxImages {
			break
		}
		items = append(items, Item{
			ID:        "existing-" + uuid.NewString(),
			Preview:   u,
			RemoteURL: u,
			Status:    StatusExisting,
			Progress:  100,
		})
	}
	return Sequence{items: items}
}

func (s Sequence) Len() int { return len(s.items) }

// Items returns a copy of the items.
func (s Sequence) Items() []Item {
	return append([]Item(nil), s.items...)
}

func (s Sequence) At(i int) Item { return s.items[i] }

func (s Sequence) Get(id string) (Item, bool) {
	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	return Item{}, false
}

// Primary returns the product's primary image, if any.
func (s Sequence) Primary() (Item, bool) {
	if len(s.items) == 0 {
		return Item{}, false
	}
	return s.items[0], true
}

// URLs lists the remote URLs of persisted items in order.
func (s Sequence) URLs() []string {
	urls := make([]string, 0, len(s.items))
	for _, it := range s.items {
		if it.Persisted() {
			urls = append(urls, it.RemoteURL)
		}
	}
	return urls
}

// AddReport tells the caller how many of the submitted files made it in.
type AddReport struct {
	Requested        int      `json:"requested"`
	Accepted         int      `json:"accepted"`
	RejectedType     int      `json:"rejected_type"`
	RejectedCapacity int      `json:"rejected_capacity"`
	Oversized        int      `json:"oversized"`
	RejectedNames    []string `json:"rejected_names,omitempty"`
}

// Messages renders advisory notes for the user; none of them are fatal.
func (r AddReport) Messages() []string {
	var msgs []string
	if r.RejectedType > 0 {
		msgs = append(msgs, fmt.Sprintf("%v: %d file(s) skipped, use JPG, PNG or WebP", ErrInvalidFileType, r.RejectedType))
	}
	if r.RejectedCapacity > 0 {
		msgs = append(msgs, fmt.Sprintf("%v: %d file(s) not added (max %d photos)",
			ErrTooManyFiles, r.RejectedCapacity, MaxImages))
	}
	if r.Oversized > 0 {
		msgs = append(msgs, fmt.Sprintf("%d file(s) larger than 5MB will be compressed", r.Oversized))
	}
	return msgs
}

// Add appends the acceptable files as pending items, in submitted order.
// Files with unsupported types are skipped; valid files beyond the remaining
// capacity are dropped.
func (s Sequence) Add(files []*compress.Blob, previews Previews) (Sequence, AddReport) {
	report := AddReport{Requested: len(files)}

	remaining := MaxImages - len(s.items)
	if remaining < 0 {
		remaining = 0
	}

	next := make([]Item, len(s.items), len(s.items)+remaining)
	copy(next, s.items)
	for _, f := range files {
		if f == nil || !acceptedTypes[f.ContentType] {
			report.RejectedType++
			if f != nil {
				report.RejectedNames = append(report.RejectedNames, f.Name)
			}
			continue
		}
		if report.Accepted == remaining {
			report.RejectedCapacity++
			continue
		}
		if f.Size() > OversizedBytes {
			report.Oversized++
		}
		next = append(next, Item{
			ID:       uuid.NewString(),
			Source:   f,
			Preview:  previews.Create(f),
			Status:   StatusPending,
			Progress: 0,
		})
		report.Accepted++
	}
	return Sequence{items: next}, report
}

// Remove drops the item with the given id and releases its local preview.
func (s Sequence) Remove(id string, previews Previews) Sequence {
	i := s.index(id)
	if i < 0 {
		return s
	}
	if it := s.items[i]; it.Source != nil {
		previews.Release(it.Preview)
	}
	next := make([]Item, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	return Sequence{items: next}
}

// Move swaps the item at index with its neighbour at index+direction.
// Out of range moves leave the sequence as is.
func (s Sequence) Move(index, direction int) Sequence {
	to := index + direction
	if index < 0 || index >= len(s.items) || to < 0 || to >= len(s.items) {
		return s
	}
	next := s.Items()
	next[index], next[to] = next[to], next[index]
	return Sequence{items: next}
}

// replace swaps in a new version of the item with the same id.
func (s Sequence) replace(it Item) Sequence {
	i := s.index(it.ID)
	if i < 0 {
		return s
	}
	next := s.Items()
	next[i] = it
	return Sequence{items: next}
}

// ReleaseAll drops every local preview held by the sequence.
func (s Sequence) ReleaseAll(previews Previews) {
	for _, it := range s.items {
		if it.Source != nil {
			previews.Release(it.Preview)
		}
	}
}

func (s Sequence) index(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
