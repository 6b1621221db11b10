package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"artesanos/internal/compress"
)

type passCompressor struct {
	fail map[string]bool
}

func (p passCompressor) Compress(_ context.Context, src *compress.Blob, _ int, _ float64) (*compress.Blob, error) {
	if p.fail[src.Name] {
		return nil, compress.ErrDecode
	}
	return src, nil
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, path, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockUploader) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func newTestOrchestrator(c Compressor, u Uploader) *Orchestrator {
	o := NewOrchestrator(c, u, Options{MaxWidth: 1200, Quality: 0.82}, zerolog.Nop())
	o.now = func() time.Time { return time.UnixMilli(1700000000000) }
	o.token = func() string { return "tok" }
	return o
}

func TestRun_ExistingOnlyMakesNoCalls(t *testing.T) {
	up := new(MockUploader)
	urls := []string{"https://cdn/1.jpg", "https://cdn/2.jpg"}

	res, err := newTestOrchestrator(passCompressor{}, up).Run(context.Background(), "user-1", LoadExisting(urls), nil)

	require.NoError(t, err)
	assert.Equal(t, urls, res.URLs)
	up.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_MiddleFailureIsSkipped(t *testing.T) {
	previews := NewMemoryPreviews()
	seq, _ := Sequence{}.Add([]*compress.Blob{jpegFile("1.jpg"), jpegFile("2.jpg"), jpegFile("3.jpg")}, previews)

	up := new(MockUploader)
	up.On("Upload", mock.Anything, mock.Anything, []byte("1.jpg"), compress.ContentTypeJPEG).Return("k1", nil).Once()
	up.On("Upload", mock.Anything, mock.Anything, []byte("2.jpg"), compress.ContentTypeJPEG).Return("", errors.New("bucket full")).Once()
	up.On("Upload", mock.Anything, mock.Anything, []byte("3.jpg"), compress.ContentTypeJPEG).Return("k3", nil).Once()

	var snapshots []Sequence
	res, err := newTestOrchestrator(passCompressor{}, up).Run(context.Background(), "user-1", seq, func(s Sequence) {
		snapshots = append(snapshots, s)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/k1", "https://cdn.test/k3"}, res.URLs)
	assert.Equal(t, 2, res.Uploaded)
	assert.Equal(t, 1, res.Failed)

	second := res.Sequence.At(1)
	assert.Equal(t, StatusError, second.Status)
	assert.Contains(t, second.Err, "bucket full")
	assert.Contains(t, second.Err, ErrUpload.Error())
	assert.Equal(t, StatusDone, res.Sequence.At(0).Status)
	assert.Equal(t, 100, res.Sequence.At(2).Progress)
	up.AssertExpectations(t)

	// uploading@30, compressed@60, done/error per item
	require.Len(t, snapshots, 9)
	assert.Equal(t, StatusUploading, snapshots[0].At(0).Status)
	assert.Equal(t, 30, snapshots[0].At(0).Progress)
	assert.Equal(t, 60, snapshots[1].At(0).Progress)
	assert.Equal(t, StatusPending, snapshots[0].At(1).Status, "later items untouched while the first uploads")
}

func TestRun_AllFail(t *testing.T) {
	seq, _ := Sequence{}.Add([]*compress.Blob{jpegFile("1.jpg"), jpegFile("2.jpg")}, NewMemoryPreviews())
	up := new(MockUploader)
	up.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("offline"))

	res, err := newTestOrchestrator(passCompressor{}, up).Run(context.Background(), "user-1", seq, nil)

	assert.ErrorIs(t, err, ErrNoImagesUploaded)
	assert.Empty(t, res.URLs)
	for _, it := range res.Sequence.Items() {
		assert.Equal(t, StatusError, it.Status)
		assert.NotNil(t, it.Source)
	}
}

func TestRun_CompressFailureMarksError(t *testing.T) {
	seq, _ := Sequence{}.Add([]*compress.Blob{jpegFile("bad.jpg"), jpegFile("ok.jpg")}, NewMemoryPreviews())
	up := new(MockUploader)
	up.On("Upload", mock.Anything, mock.Anything, []byte("ok.jpg"), mock.Anything).Return("ok", nil)

	res, err := newTestOrchestrator(passCompressor{fail: map[string]bool{"bad.jpg": true}}, up).
		Run(context.Background(), "user-1", seq, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/ok"}, res.URLs)
	assert.Equal(t, StatusError, res.Sequence.At(0).Status)
	assert.Equal(t, 30, res.Sequence.At(0).Progress)
	up.AssertNumberOfCalls(t, "Upload", 1)
}

func TestRun_RetryOnlyFailedItems(t *testing.T) {
	seq := LoadExisting([]string{"https://cdn/old.jpg"})
	seq, _ = seq.Add([]*compress.Blob{jpegFile("a.jpg"), jpegFile("b.jpg")}, NewMemoryPreviews())

	up := new(MockUploader)
	up.On("Upload", mock.Anything, mock.Anything, []byte("a.jpg"), mock.Anything).Return("a", nil).Once()
	up.On("Upload", mock.Anything, mock.Anything, []byte("b.jpg"), mock.Anything).Return("", errors.New("timeout")).Once()
	o := newTestOrchestrator(passCompressor{}, up)

	first, err := o.Run(context.Background(), "user-1", seq, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/old.jpg", "https://cdn.test/a"}, first.URLs)

	up.On("Upload", mock.Anything, mock.Anything, []byte("b.jpg"), mock.Anything).Return("b", nil).Once()
	second, err := o.Run(context.Background(), "user-1", first.Sequence, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/old.jpg", "https://cdn.test/a", "https://cdn.test/b"}, second.URLs)
	assert.Equal(t, 1, second.Uploaded)
	up.AssertNumberOfCalls(t, "Upload", 3)
}

func TestRun_RequiresIdentity(t *testing.T) {
	seq, _ := Sequence{}.Add([]*compress.Blob{jpegFile("a.jpg")}, NewMemoryPreviews())
	up := new(MockUploader)

	_, err := newTestOrchestrator(passCompressor{}, up).Run(context.Background(), " ", seq, nil)

	assert.ErrorIs(t, err, ErrNoIdentity)
	up.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_PathScopedByUser(t *testing.T) {
	seq, _ := Sequence{}.Add([]*compress.Blob{jpegFile("a.jpg")}, NewMemoryPreviews())
	up := new(MockUploader)
	up.On("Upload", mock.Anything, "user-9/1700000000000-tok.jpg", mock.Anything, mock.Anything).Return("user-9/1700000000000-tok.jpg", nil)

	res, err := newTestOrchestrator(passCompressor{}, up).Run(context.Background(), "user-9", seq, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/user-9/1700000000000-tok.jpg"}, res.URLs)
	up.AssertExpectations(t)
}

func TestObjectPathSortsByTime(t *testing.T) {
	a := ObjectPath("u", time.UnixMilli(1700000000000), "zz", "jpg")
	b := ObjectPath("u", time.UnixMilli(1700000000001), "aa", "jpg")
	assert.Less(t, a, b)
	assert.Len(t, randomToken(), 12)
}
