// Package gallery holds the state of the product image viewer: which image is
// shown, zoom and pan, double tap and keyboard navigation.
package gallery

import (
	"math"
	"time"
)

const (
	MinScale       = 1.0
	MaxScale       = 4.0
	ZoomStep       = 1.5
	DoubleTapScale = 2.0
	DoubleTapGap   = 300 * time.Millisecond
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Key int

const (
	KeyLeft Key = iota + 1
	KeyRight
	KeyEscape
)

// KeySource delivers key presses to subscribers until they unsubscribe.
type KeySource interface {
	Subscribe(fn func(Key)) (unsubscribe func())
}

// Viewer is not safe for concurrent use; it is driven by one UI loop.
type Viewer struct {
	images   []string
	fallback string
	broken   map[int]bool

	index     int
	scale     float64
	translate Point

	dragging  bool
	dragStart Point
	lastTap   time.Time

	open        bool
	unsubscribe func()
	onClose     func()
}

func New(images []string, initial int, fallback string) *Viewer {
	v := &Viewer{
		images:   append([]string(nil), images...),
		fallback: fallback,
		broken:   make(map[int]bool),
		scale:    MinScale,
	}
	v.index = v.clamp(initial)
	return v
}

func (v *Viewer) Len() int { return len(v.images) }
func (v *Viewer) Index() int { return v.index }
func (v *Viewer) Scale() float64 { return v.scale }
func (v *Viewer) Translate() Point { return v.translate }
func (v *Viewer) IsOpen() bool { return v.open }
func (v *Viewer) Dragging() bool { return v.dragging }
func (v *Viewer) CanZoomIn() bool { return v.scale < MaxScale }
func (v *Viewer) CanZoomOut() bool { return v.scale > MinScale }
func (v *Viewer) ZoomPercent() int { return int(math.Round(v.scale * 100)) }
func (v *Viewer) ShowArrows() bool { return len(v.images) > 1 }
func (v *Viewer) Current() string { return v.Source(v.index) }

// Source returns the URL to render at i, or the fallback when the image is
// missing or failed to load.
func (v *Viewer) Source(i int) string {
	if i < 0 || i >= len(v.images) || v.broken[i] || v.images[i] == "" {
		return v.fallback
	}
	return v.images[i]
}

// Sources lists what the thumbnail strip renders.
func (v *Viewer) Sources() []string {
	if len(v.images) == 0 {
		return []string{v.fallback}
	}
	out := make([]string, len(v.images))
	for i := range v.images {
		out[i] = v.Source(i)
	}
	return out
}

// MarkBroken records that image i failed to load.
func (v *Viewer) MarkBroken(i int) {
	if i >= 0 && i < len(v.images) {
		v.broken[i] = true
	}
}

func (v *Viewer) Next() {
	if len(v.images) == 0 {
		return
	}
	v.setIndex((v.index + 1) % len(v.images))
}

func (v *Viewer) Prev() {
	if len(v.images) == 0 {
		return
	}
	v.setIndex((v.index - 1 + len(v.images)) % len(v.images))
}

// Select jumps to a thumbnail; out of range indexes are clamped.
func (v *Viewer) Select(i int) {
	v.setIndex(v.clamp(i))
}

func (v *Viewer) setIndex(i int) {
	if i == v.index {
		return
	}
	v.index = i
	v.ResetZoom()
}

func (v *Viewer) clamp(i int) int {
	if i < 0 || len(v.images) == 0 {
		return 0
	}
	if i > len(v.images)-1 {
		return len(v.images) - 1
	}
	return i
}

func (v *Viewer) ZoomIn() {
	v.scale = math.Min(v.scale*ZoomStep, MaxScale)
}

func (v *Viewer) ZoomOut() {
	v.scale = math.Max(v.scale/ZoomStep, MinScale)
	if v.scale == MinScale {
		v.translate = Point{}
	}
}

func (v *Viewer) ResetZoom() {
	v.scale = MinScale
	v.translate = Point{}
	v.dragging = false
}

// BeginDrag starts a pan gesture at p.
func (v *Viewer) BeginDrag(p Point) {
	v.dragging = true
	v.dragStart = Point{X: p.X - v.translate.X, Y: p.Y - v.translate.Y}
}

// DragTo pans to p. Nothing moves unless zoomed in.
func (v *Viewer) DragTo(p Point) {
	if !v.dragging || v.scale <= MinScale {
		return
	}
	v.translate = Point{X: p.X - v.dragStart.X, Y: p.Y - v.dragStart.Y}
}

// EndDrag leaves the pan offset where it is.
func (v *Viewer) EndDrag() {
	v.dragging = false
}

// Tap registers a tap at the given time. Two taps closer than DoubleTapGap
// toggle between the reset view and DoubleTapScale.
func (v *Viewer) Tap(at time.Time) {
	if !v.lastTap.IsZero() && at.Sub(v.lastTap) < DoubleTapGap {
		if v.scale > MinScale {
			v.ResetZoom()
		} else {
			v.scale = DoubleTapScale
		}
	}
	v.lastTap = at
}

// Open makes the viewer the active surface and binds the arrow and escape
// keys. onClose runs after Close.
func (v *Viewer) Open(keys KeySource, onClose func()) {
	if v.open {
		return
	}
	v.open = true
	v.onClose = onClose
	if keys != nil {
		v.unsubscribe = keys.Subscribe(v.HandleKey)
	}
}

// Close unbinds the keys and resets zoom.
func (v *Viewer) Close() {
	if !v.open {
		return
	}
	v.open = false
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	v.ResetZoom()
	if v.onClose != nil {
		v.onClose()
	}
}

func (v *Viewer) HandleKey(k Key) {
	if !v.open {
		return
	}
	switch k {
	case KeyLeft:
		v.Prev()
	case KeyRight:
		v.Next()
	case KeyEscape:
		v.Close()
	}
}
