package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// ImageStore is the blob storage the worker reads primaries from and writes
// thumbnails to.
type ImageStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	PublicURL(key string) string
	KeyFromURL(url string) (string, bool)
}

type ThumbnailRecorder interface {
	SetThumbnail(ctx context.Context, id uuid.UUID, primary, thumbnail string) error
}

// ThumbnailWorker renders a square thumbnail of each product's primary image.
type ThumbnailWorker struct {
	reader messageReader
	store  ImageStore
	db     ThumbnailRecorder
	size   int
	log    zerolog.Logger
}

func NewThumbnailWorker(r messageReader, store ImageStore, db ThumbnailRecorder, size int, log zerolog.Logger) *ThumbnailWorker {
	return &ThumbnailWorker{reader: r, store: store, db: db, size: size, log: log}
}

// Run consumes events until ctx is cancelled.
func (w *ThumbnailWorker) Run(ctx context.Context) {
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("error reading message")
			continue
		}
		var ev ImagesSaved
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			w.log.Error().Err(err).Msg("malformed images event")
			continue
		}
		if err := w.Process(ctx, ev); err != nil {
			w.log.Error().Err(err).Str("product_id", ev.ProductID.String()).Msg("error generating thumbnail")
		}
	}
}

func (w *ThumbnailWorker) Process(ctx context.Context, ev ImagesSaved) error {
	const op = "events.Process"

	if len(ev.Imagenes) == 0 {
		return nil
	}
	primary := ev.Imagenes[0]
	key, ok := w.store.KeyFromURL(primary)
	if !ok {
		// Hosted elsewhere; nothing to render from.
		return nil
	}

	data, err := w.store.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	thumb := imaging.Thumbnail(src, w.size, w.size, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	thumbKey, err := w.store.Put(ctx, ThumbnailKey(key), buf.Bytes(), "image/jpeg")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := w.db.SetThumbnail(ctx, ev.ProductID, primary, w.store.PublicURL(thumbKey)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	w.log.Info().Str("product_id", ev.ProductID.String()).Str("thumbnail", thumbKey).Msg("thumbnail stored")
	return nil
}

// ThumbnailKey places the thumbnail next to its source: a/b.jpg -> a/b_thumb.jpg
func ThumbnailKey(key string) string {
	if i := strings.LastIndex(key, "."); i > strings.LastIndex(key, "/") {
		key = key[:i]
	}
	return key + "_thumb.jpg"
}
