package compress

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Codec decodes, resizes and re-encodes raster images.
type Codec interface {
	Decode(r io.Reader) (image.Image, error)
	Resize(img image.Image, width, height int) image.Image
	EncodeJPEG(w io.Writer, img image.Image, quality int) error
}

// ImagingCodec is the Codec backed by disintegration/imaging. WebP input is
// handled through the x/image decoder registered above.
type ImagingCodec struct{}

func (ImagingCodec) Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r, imaging.AutoOrientation(true))
}

func (ImagingCodec) Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

func (ImagingCodec) EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}
