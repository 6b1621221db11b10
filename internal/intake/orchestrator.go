package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"artesanos/internal/compress"
)

const (
	progressUploading  = 30
	progressCompressed = 60
	progressDone       = 100
)

// Uploader stores bytes under a path and resolves stored keys to public URLs.
type Uploader interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (key string, err error)
	PublicURL(key string) string
}

// Compressor shrinks an image before upload.
type Compressor interface {
	Compress(ctx context.Context, src *compress.Blob, maxWidth int, quality float64) (*compress.Blob, error)
}

type Options struct {
	MaxWidth int
	Quality  float64
}

type Orchestrator struct {
	compressor Compressor
	uploader   Uploader
	opts       Options
	log        zerolog.Logger

	now   func() time.Time
	token func() string
}

func NewOrchestrator(c Compressor, u Uploader, opts Options, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		compressor: c,
		uploader:   u,
		opts:       opts,
		log:        log,
		now:        time.Now,
		token:      randomToken,
	}
}

type Result struct {
	URLs     []string
	Sequence Sequence
	Uploaded int
	Failed   int
}

// Run uploads every item that has no durable URL yet, one at a time and in
// order, and returns the URLs to persist on the product. Each status change is
// published to observe as a fresh snapshot. Items that fail are marked and
// skipped; re-running retries only those.
func (o *Orchestrator) Run(ctx context.Context, userID string, seq Sequence, observe func(Sequence)) (Result, error) {
	const op = "intake.Run"

	if observe == nil {
		observe = func(Sequence) {}
	}
	if strings.TrimSpace(userID) == "" {
		return Result{Sequence: seq}, fmt.Errorf("%s: %w", op, ErrNoIdentity)
	}

	res := Result{URLs: make([]string, 0, seq.Len())}
	for i := 0; i < seq.Len(); i++ {
		it := seq.At(i)

		if it.Persisted() {
			res.URLs = append(res.URLs, it.RemoteURL)
			continue
		}
		if it.Source == nil {
			continue
		}

		it.Status, it.Progress, it.Err = StatusUploading, progressUploading, ""
		seq = seq.replace(it)
		observe(seq)

		url, err := o.uploadOne(ctx, userID, &it, func() {
			seq = seq.replace(it)
			observe(seq)
		})
		if err != nil {
			o.log.Warn().Err(err).Str("item_id", it.ID).Str("user_id", userID).Msg("image upload failed")
			it.Status, it.Err = StatusError, err.Error()
			seq = seq.replace(it)
			observe(seq)
			res.Failed++
			continue
		}

		// A fresh item replaces the old one so the URL is never mutated in place.
		seq = seq.replace(Item{
			ID:        it.ID,
			Source:    it.Source,
			Preview:   it.Preview,
			RemoteURL: url,
			Status:    StatusDone,
			Progress:  progressDone,
		})
		observe(seq)
		res.URLs = append(res.URLs, url)
		res.Uploaded++
	}

	res.Sequence = seq
	if len(res.URLs) == 0 && seq.Len() > 0 {
		return res, fmt.Errorf("%s: %w", op, ErrNoImagesUploaded)
	}
	return res, nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, userID string, it *Item, compressed func()) (string, error) {
	blob, err := o.compressor.Compress(ctx, it.Source, o.opts.MaxWidth, o.opts.Quality)
	if err != nil {
		return "", err
	}
	it.Progress = progressCompressed
	compressed()

	path := ObjectPath(userID, o.now(), o.token(), blob.Ext())
	key, err := o.uploader.Upload(ctx, path, blob.Data, blob.ContentType)
	if err != nil {
		if errors.Is(err, ErrUpload) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return o.uploader.PublicURL(key), nil
}

// ObjectPath scopes uploads by user and keeps them sortable by time:
// <user>/<unix millis>-<token>.<ext>
func ObjectPath(userID string, at time.Time, token, ext string) string {
	return fmt.Sprintf("%s/%d-%s.%s", userID, at.UnixMilli(), token, ext)
}

func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
