package compress

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeWebP = "image/webp"

	// FastPathBytes is the size under which a JPEG is uploaded as is.
	FastPathBytes = 500 * 1024
)

// Blob is a named chunk of image bytes with its declared content type.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

func (b *Blob) Size() int {
	return len(b.Data)
}

// Ext returns the file extension without the dot, "jpg" when there is none.
func (b *Blob) Ext() string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(b.Name)), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}

type Compressor struct {
	codec Codec
}

func New(codec Codec) *Compressor {
	if codec == nil {
		codec = ImagingCodec{}
	}
	return &Compressor{codec: codec}
}

// Compress bounds src to maxWidth pixels wide and re-encodes it as JPEG at the
// given quality (0,1]. Small JPEGs are returned unchanged.
func (c *Compressor) Compress(ctx context.Context, src *Blob, maxWidth int, quality float64) (*Blob, error) {
	const op = "compress.Compress"

	if maxWidth <= 0 || quality <= 0 || quality > 1 {
		return nil, fmt.Errorf("%s: %w: maxWidth=%d quality=%v", op, ErrOptions, maxWidth, quality)
	}
	if src.Size() < FastPathBytes && src.ContentType == ContentTypeJPEG {
		return src, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	img, err := c.codec.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}

	w, h := FitWidth(img.Bounds().Dx(), img.Bounds().Dy(), maxWidth)
	if w != img.Bounds().Dx() {
		img = c.codec.Resize(img, w, h)
	}

	var buf bytes.Buffer
	if err := c.codec.EncodeJPEG(&buf, img, jpegQuality(quality)); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrEncode, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%s: %w: empty output", op, ErrEncode)
	}

	return &Blob{
		Name:        jpegName(src.Name),
		ContentType: ContentTypeJPEG,
		Data:        buf.Bytes(),
	}, nil
}

// FitWidth scales (w, h) down so the width is at most maxWidth, keeping the
// aspect ratio. Images already narrow enough are left alone.
func FitWidth(w, h, maxWidth int) (int, int) {
	if w <= maxWidth || w == 0 {
		return w, h
	}
	nh := int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
	if nh < 1 {
		nh = 1
	}
	return maxWidth, nh
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	return v
}

func jpegName(name string) string {
	if name == "" {
		return "image.jpg"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
