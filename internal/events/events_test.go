package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

type fakeReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		f.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func (f *fakeStore) Put(_ context.Context, path string, data []byte, _ string) (string, error) {
	f.objects[path] = data
	return path, nil
}

func (f *fakeStore) PublicURL(key string) string { return "https://cdn.test/productos/" + key }

func (f *fakeStore) KeyFromURL(url string) (string, bool) {
	return strings.CutPrefix(url, "https://cdn.test/productos/")
}

type recorder struct {
	id        uuid.UUID
	primary   string
	thumbnail string
}

func (r *recorder) SetThumbnail(_ context.Context, id uuid.UUID, primary, thumbnail string) error {
	r.id, r.primary, r.thumbnail = id, primary, thumbnail
	return nil
}

func sampleJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestPublisher_ImagesSaved(t *testing.T) {
	w := &fakeWriter{}
	ev := ImagesSaved{ProductID: uuid.New(), ArtesanoID: "a-1", Imagenes: []string{"u1", "u2"}, SavedAt: time.Now().UTC()}

	require.NoError(t, NewPublisher(w).ImagesSaved(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, ev.ProductID.String(), string(w.msgs[0].Key))
	var got ImagesSaved
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, ev.Imagenes, got.Imagenes)
}

func TestThumbnailWorker_Run(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"a-1/1-x.jpg": sampleJPEG(t, 800, 600)}}
	rec := &recorder{}
	pid := uuid.New()
	body, err := json.Marshal(ImagesSaved{ProductID: pid, Imagenes: []string{"https://cdn.test/productos/a-1/1-x.jpg"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &fakeReader{msgs: []kafka.Message{{Value: []byte("{bad")}, {Value: body}}, cancel: cancel}

	NewThumbnailWorker(reader, store, rec, 100, zerolog.Nop()).Run(ctx)

	thumb, ok := store.objects["a-1/1-x_thumb.jpg"]
	require.True(t, ok)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
	assert.Equal(t, pid, rec.id)
	assert.Equal(t, "https://cdn.test/productos/a-1/1-x.jpg", rec.primary)
	assert.Equal(t, "https://cdn.test/productos/a-1/1-x_thumb.jpg", rec.thumbnail)
}

func TestThumbnailWorker_SkipsForeignAndEmpty(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	rec := &recorder{}
	w := NewThumbnailWorker(nil, store, rec, 100, zerolog.Nop())

	require.NoError(t, w.Process(context.Background(), ImagesSaved{}))
	require.NoError(t, w.Process(context.Background(), ImagesSaved{Imagenes: []string{"https://elsewhere.test/a.jpg"}}))
	assert.Empty(t, store.objects)
	assert.Empty(t, rec.thumbnail)

	err := w.Process(context.Background(), ImagesSaved{Imagenes: []string{"https://cdn.test/productos/missing.jpg"}})
	assert.Error(t, err)
}

func TestThumbnailKey(t *testing.T) {
	assert.Equal(t, "u/1-a_thumb.jpg", ThumbnailKey("u/1-a.webp"))
	assert.Equal(t, "u.v/name_thumb.jpg", ThumbnailKey("u.v/name"))
}
