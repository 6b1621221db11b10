package intake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artesanos/internal/compress"
)

// Draft is the server side of one product form: the image sequence being
// edited, which product it belongs to and who owns it.
type Draft struct {
	ID      string
	OwnerID string

	mu         sync.Mutex
	productID  *uuid.UUID
	seq        Sequence
	submitting bool
	closed     bool
	dropped    int
	touched    time.Time
}

type DraftView struct {
	ID         string     `json:"id"`
	ProductID  *uuid.UUID `json:"product_id,omitempty"`
	Items      []Item     `json:"items"`
	Submitting bool       `json:"submitting"`

	// DroppedExisting counts stored images that did not fit in the draft.
	DroppedExisting int `json:"dropped_existing,omitempty"`
}

func (d *Draft) Snapshot() Sequence {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

func (d *Draft) View() DraftView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DraftView{
		ID:              d.ID,
		ProductID:       d.productID,
		Items:           d.seq.Items(),
		Submitting:      d.submitting,
		DroppedExisting: d.dropped,
	}
}

// ProductID is nil until the draft is tied to a saved product.
func (d *Draft) ProductID() *uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.productID
}

// Attach ties a new-product draft to the product it was saved as, so a later
// submit updates that product instead of creating another.
func (d *Draft) Attach(productID uuid.UUID) {
	d.mu.Lock()
	d.productID = &productID
	d.touched = time.Now()
	d.mu.Unlock()
}

// edit applies fn to the current sequence unless a submit is running.
func (d *Draft) edit(fn func(Sequence) Sequence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDraftNotFound
	}
	if d.submitting {
		return ErrDraftBusy
	}
	d.seq = fn(d.seq)
	d.touched = time.Now()
	return nil
}

func (d *Draft) set(seq Sequence) {
	d.mu.Lock()
	d.seq = seq
	d.touched = time.Now()
	d.mu.Unlock()
}

// Drafts holds open drafts in memory and runs their submissions.
type Drafts struct {
	mu       sync.Mutex
	drafts   map[string]*Draft
	previews Previews
	orch     *Orchestrator
	ttl      time.Duration
	log      zerolog.Logger
}

func NewDrafts(previews Previews, orch *Orchestrator, ttl time.Duration, log zerolog.Logger) *Drafts {
	return &Drafts{
		drafts:   make(map[string]*Draft),
		previews: previews,
		orch:     orch,
		ttl:      ttl,
		log:      log,
	}
}

// Open starts a draft. For an existing product its stored URLs are loaded;
// URLs beyond MaxImages are dropped and reported in the log.
func (ds *Drafts) Open(ownerID string, productID *uuid.UUID, existing []string) *Draft {
	d := &Draft{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		productID: productID,
		seq:       LoadExisting(existing),
		touched:   time.Now(),
	}
	if d.dropped = countURLs(existing) - d.seq.Len(); d.dropped > 0 {
		ev := ds.log.Warn().Str("draft_id", d.ID).Str("user_id", ownerID).Int("dropped", d.dropped)
		if productID != nil {
			ev = ev.Str("product_id", productID.String())
		}
		ev.Msg("stored images exceed the per product limit, saving this draft will drop them")
	}
	ds.mu.Lock()
	ds.drafts[d.ID] = d
	ds.mu.Unlock()
	return d
}

// Get returns the draft if it exists and belongs to ownerID.
func (ds *Drafts) Get(id, ownerID string) (*Draft, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	d, ok := ds.drafts[id]
	if !ok || d.OwnerID != ownerID {
		return nil, fmt.Errorf("intake.Get: %w", ErrDraftNotFound)
	}
	return d, nil
}

func (ds *Drafts) Add(d *Draft, files []*compress.Blob) (AddReport, error) {
	var report AddReport
	err := d.edit(func(s Sequence) Sequence {
		var next Sequence
		next, report = s.Add(files, ds.previews)
		return next
	})
	return report, err
}

func (ds *Drafts) Remove(d *Draft, itemID string) error {
	return d.edit(func(s Sequence) Sequence { return s.Remove(itemID, ds.previews) })
}

func (ds *Drafts) Move(d *Draft, index, direction int) error {
	return d.edit(func(s Sequence) Sequence { return s.Move(index, direction) })
}

// Submit uploads the draft's pending images. Edits are refused while it runs
// and every progress step is visible through View.
func (ds *Drafts) Submit(ctx context.Context, d *Draft) (Result, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return Result{}, ErrDraftNotFound
	}
	if d.submitting {
		d.mu.Unlock()
		return Result{}, ErrDraftBusy
	}
	d.submitting = true
	seq := d.seq
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.submitting = false
		d.mu.Unlock()
	}()

	res, err := ds.orch.Run(ctx, d.OwnerID, seq, d.set)
	d.set(res.Sequence)
	return res, err
}

// Close discards a draft and releases its previews. A draft whose submit is
// still running is kept and ErrDraftBusy returned.
func (ds *Drafts) Close(id string) error {
	ds.mu.Lock()
	d, ok := ds.drafts[id]
	if !ok {
		ds.mu.Unlock()
		return nil
	}
	seq, err := ds.closeLocked(d, nil)
	ds.mu.Unlock()
	if err != nil {
		return fmt.Errorf("intake.Close: %w", err)
	}
	seq.ReleaseAll(ds.previews)
	return nil
}

// closeLocked removes d unless it is submitting or when(d) is false. ds.mu
// must be held.
func (ds *Drafts) closeLocked(d *Draft, when func(*Draft) bool) (Sequence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitting {
		return Sequence{}, ErrDraftBusy
	}
	if when != nil && !when(d) {
		return Sequence{}, errNotExpired
	}
	d.closed = true
	delete(ds.drafts, d.ID)
	return d.seq, nil
}

// Sweep closes drafts idle for longer than the TTL and reports how many.
func (ds *Drafts) Sweep(now time.Time) int {
	idle := func(d *Draft) bool { return now.Sub(d.touched) > ds.ttl }

	ds.mu.Lock()
	var expired []Sequence
	for _, d := range ds.drafts {
		if seq, err := ds.closeLocked(d, idle); err == nil {
			expired = append(expired, seq)
		}
	}
	ds.mu.Unlock()

	for _, seq := range expired {
		seq.ReleaseAll(ds.previews)
	}
	return len(expired)
}

func countURLs(urls []string) int {
	n := 0
	for _, u := range urls {
		if u != "" {
			n++
		}
	}
	return n
}

// RunSweeper sweeps every interval until ctx is done.
func (ds *Drafts) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := ds.Sweep(now); n > 0 {
				ds.log.Info().Int("expired", n).Msg("closed idle drafts")
			}
		}
	}
}

func (ds *Drafts) Len() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.drafts)
}
