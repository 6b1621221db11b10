package gallery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fallback = "https://example.test/placeholder.jpg"

type fakeKeys struct {
	subs map[int]func(Key)
	next int
}

func (f *fakeKeys) Subscribe(fn func(Key)) func() {
	if f.subs == nil {
		f.subs = make(map[int]func(Key))
	}
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() { delete(f.subs, id) }
}

func (f *fakeKeys) press(k Key) {
	for _, fn := range f.subs {
		fn(k)
	}
}

func threeImages() *Viewer {
	return New([]string{"a.jpg", "b.jpg", "c.jpg"}, 0, fallback)
}

func TestNavigationWraps(t *testing.T) {
	v := New([]string{"a.jpg", "b.jpg", "c.jpg"}, 2, fallback)
	v.Next()
	assert.Equal(t, 0, v.Index())
	v.Prev()
	assert.Equal(t, 2, v.Index())
	assert.Equal(t, "c.jpg", v.Current())
}

func TestInitialIndexClamped(t *testing.T) {
	assert.Equal(t, 2, New([]string{"a", "b", "c"}, 9, fallback).Index())
	assert.Equal(t, 0, New([]string{"a", "b", "c"}, -3, fallback).Index())

	empty := New(nil, 4, fallback)
	assert.Equal(t, 0, empty.Index())
	empty.Next()
	empty.Prev()
	assert.Equal(t, fallback, empty.Current())
	assert.Equal(t, []string{fallback}, empty.Sources())
}

func TestZoomClampAndReset(t *testing.T) {
	v := threeImages()
	v.ZoomIn()
	v.ZoomIn()
	v.ZoomIn()
	assert.InDelta(t, 3.375, v.Scale(), 1e-9)

	v.BeginDrag(Point{X: 10, Y: 10})
	v.DragTo(Point{X: 40, Y: -5})
	v.EndDrag()
	assert.Equal(t, Point{X: 30, Y: -15}, v.Translate())

	v.ZoomOut()
	v.ZoomOut()
	assert.NotEqual(t, Point{}, v.Translate())
	v.ZoomOut()
	assert.Equal(t, 1.0, v.Scale())
	assert.Equal(t, Point{}, v.Translate())
	v.ZoomOut()
	assert.Equal(t, 1.0, v.Scale())

	for i := 0; i < 10; i++ {
		v.ZoomIn()
	}
	assert.Equal(t, MaxScale, v.Scale())
	assert.False(t, v.CanZoomIn())
	assert.Equal(t, 400, v.ZoomPercent())
}

func TestPanOnlyWhenZoomed(t *testing.T) {
	v := threeImages()
	v.BeginDrag(Point{X: 0, Y: 0})
	v.DragTo(Point{X: 50, Y: 50})
	assert.Equal(t, Point{}, v.Translate())

	v.ZoomIn()
	v.DragTo(Point{X: 50, Y: 50})
	assert.Equal(t, Point{X: 50, Y: 50}, v.Translate())
	v.EndDrag()

	v.BeginDrag(Point{X: 100, Y: 100})
	v.DragTo(Point{X: 110, Y: 90})
	assert.Equal(t, Point{X: 60, Y: 40}, v.Translate(), "second drag continues from the last offset")
}

func TestIndexChangeResetsView(t *testing.T) {
	v := threeImages()
	v.ZoomIn()
	v.BeginDrag(Point{})
	v.DragTo(Point{X: 5, Y: 5})
	v.Next()
	assert.Equal(t, 1.0, v.Scale())
	assert.Equal(t, Point{}, v.Translate())

	v.ZoomIn()
	v.Select(1)
	assert.Equal(t, ZoomStep, v.Scale(), "selecting the current image keeps the view")
}

func TestDoubleTap(t *testing.T) {
	v := threeImages()
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	v.Tap(t0)
	assert.Equal(t, 1.0, v.Scale())
	v.Tap(t0.Add(200 * time.Millisecond))
	assert.Equal(t, DoubleTapScale, v.Scale())

	v.Tap(t0.Add(600 * time.Millisecond))
	assert.Equal(t, DoubleTapScale, v.Scale(), "slow second tap is a single tap")
	v.Tap(t0.Add(700 * time.Millisecond))
	assert.Equal(t, 1.0, v.Scale())
	assert.Equal(t, Point{}, v.Translate())

	v.Tap(t0.Add(1000 * time.Millisecond))
	v.Tap(t0.Add(1300 * time.Millisecond))
	assert.Equal(t, 1.0, v.Scale(), "exactly 300ms is not a double tap")
}

func TestBrokenImagesUseFallback(t *testing.T) {
	v := New([]string{"a.jpg", "", "c.jpg"}, 0, fallback)
	v.MarkBroken(2)
	v.MarkBroken(10)
	assert.Equal(t, []string{"a.jpg", fallback, fallback}, v.Sources())
}

func TestKeyBindingsLiveOnlyWhileOpen(t *testing.T) {
	keys := &fakeKeys{}
	v := threeImages()
	closed := 0

	v.Open(keys, func() { closed++ })
	v.Open(keys, nil)
	require.Len(t, keys.subs, 1)

	keys.press(KeyRight)
	assert.Equal(t, 1, v.Index())
	keys.press(KeyLeft)
	keys.press(KeyLeft)
	assert.Equal(t, 2, v.Index())

	v.ZoomIn()
	keys.press(KeyEscape)
	assert.False(t, v.IsOpen())
	assert.Empty(t, keys.subs)
	assert.Equal(t, 1, closed)
	assert.Equal(t, 1.0, v.Scale())

	v.HandleKey(KeyRight)
	assert.Equal(t, 2, v.Index())
	v.Close()
	assert.Equal(t, 1, closed)
}
