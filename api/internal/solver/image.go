package solver

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"mcq-solver/api/internal/util"
)

// Image is a decoded picture ready to be sent to the vision model. It lives
// for a single request.
type Image struct {
	Data     []byte
	Format   string // png | jpeg | webp
	MIMEType string
	Width    int
	Height   int
}

// DefaultMaxImagePixels bounds width*height before any pixel buffer is
// allocated. A header alone can claim dimensions worth gigabytes.
const DefaultMaxImagePixels int64 = 178956970

// Limits bound what DecodeImage accepts and produces.
type Limits struct {
	// MaxSide enables downscaling when > 0.
	MaxSide int
	// MaxPixels rejects larger images; <= 0 means DefaultMaxImagePixels.
	MaxPixels int64
}

func (l Limits) maxPixels() int64 {
	if l.MaxPixels <= 0 {
		return DefaultMaxImagePixels
	}
	return l.MaxPixels
}

// Formats the vision API takes as-is; anything else is re-encoded as PNG.
var passthroughFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
	"webp": true,
}

// DecodeDataURI splits a data URI on its first comma, decodes the base64
// payload and parses the bytes as an image.
func DecodeDataURI(dataURI string, lim Limits) (*Image, error) {
	mime, payload, err := util.SplitDataURL(dataURI)
	if err != nil {
		return nil, decodeError(err)
	}
	raw, err := util.DecodeBase64(payload)
	if err != nil {
		return nil, decodeError(fmt.Errorf("invalid base64 payload: %w", err))
	}
	return DecodeImage(raw, mime, lim)
}

// DecodeImage parses raw image bytes. mimeHint is informational only: the
// format is taken from the bytes. The header is checked against
// lim.MaxPixels before decoding. When lim.MaxSide > 0 larger images are
// scaled down so their longest side equals lim.MaxSide.
func DecodeImage(raw []byte, mimeHint string, lim Limits) (*Image, error) {
	if len(raw) == 0 {
		return nil, decodeError(errors.New("empty image payload"))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, decodeError(identifyError(mimeHint, err))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, decodeError(fmt.Errorf("image has zero size %dx%d", cfg.Width, cfg.Height))
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > lim.maxPixels() {
		return nil, decodeError(fmt.Errorf("image size %dx%d exceeds limit of %d pixels",
			cfg.Width, cfg.Height, lim.maxPixels()))
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, decodeError(identifyError(mimeHint, err))
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	scaled := false
	if maxSide := lim.MaxSide; maxSide > 0 && (w > maxSide || h > maxSide) {
		nw, nh := fitWithin(w, h, maxSide)
		src = scaleDownNN(src, nw, nh)
		w, h = nw, nh
		scaled = true
	}

	if passthroughFormats[format] && !scaled {
		return &Image{Data: raw, Format: format, MIMEType: "image/" + format, Width: w, Height: h}, nil
	}

	var out bytes.Buffer
	if err := png.Encode(&out, src); err != nil {
		return nil, decodeError(fmt.Errorf("re-encode %s as png: %w", format, err))
	}
	return &Image{Data: out.Bytes(), Format: "png", MIMEType: "image/png", Width: w, Height: h}, nil
}

func identifyError(mimeHint string, err error) error {
	if mimeHint == "" {
		return err
	}
	return fmt.Errorf("cannot identify %s image: %w", mimeHint, err)
}

func fitWithin(w, h, maxSide int) (int, int) {
	if w >= h {
		nh := h * maxSide / w
		if nh < 1 {
			nh = 1
		}
		return maxSide, nh
	}
	nw := w * maxSide / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxSide
}

func scaleDownNN(src image.Image, newW, newH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	sb := src.Bounds()
	srcW := sb.Dx()
	srcH := sb.Dy()
	for y := 0; y < newH; y++ {
		sy := sb.Min.Y + (y*srcH)/newH
		for x := 0; x < newW; x++ {
			sx := sb.Min.X + (x*srcW)/newW
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}
