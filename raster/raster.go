// Package raster renders SVG markup into bitmap data URLs.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/speedata/svgoverlay/bag"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Supported output formats.
const (
	FormatPNG  = "image/png"
	FormatJPEG = "image/jpeg"
)

// MaxPixels limits the area of a rendered image.
const MaxPixels = 1 << 26

// Size of an svg without usable width, height and viewBox.
const (
	DefaultWidth  = 300
	DefaultHeight = 150
)

var (
	// ErrUnsupportedFormat is returned for output formats other than PNG and JPEG.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrEmptyImage is returned when the svg has no drawable area.
	ErrEmptyImage = errors.New("empty image")
	// ErrTooLarge is returned when the output would exceed MaxPixels.
	ErrTooLarge = errors.New("image too large")
)

// EncodeError records a failed step of the encoding.
type EncodeError struct {
	Op  string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("raster %s: %v", e.Op, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Encoder is the bitmap export capability of a vector element. The markup is
// a complete <svg> element; only white space, an XML declaration, comments
// and a doctype may precede its start tag. Implementations must be safe for
// concurrent use.
type Encoder interface {
	EncodeDataURL(ctx context.Context, svg []byte) (string, error)
}

// SVGEncoder rasterizes svg markup with oksvg and rasterx.
type SVGEncoder struct {
	// Format is FormatPNG (the default when empty) or FormatJPEG.
	Format string
	// Scale multiplies the pixel size of the svg. Zero means 1.
	Scale float64
	// Quality is the JPEG quality. Zero means 90.
	Quality int
	// Background fills the image before drawing. Nil is transparent for PNG
	// and white for JPEG.
	Background color.Color
}

var _ Encoder = (*SVGEncoder)(nil)

// NewSVGEncoder returns an encoder for the given format with default settings.
func NewSVGEncoder(format string) *SVGEncoder {
	return &SVGEncoder{Format: format}
}

func (enc *SVGEncoder) format() (string, error) {
	switch strings.ToLower(strings.TrimSpace(enc.Format)) {
	case "", "png", FormatPNG:
		return FormatPNG, nil
	case "jpg", "jpeg", FormatJPEG:
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, enc.Format)
	}
}

// EncodeDataURL renders the svg and returns it as a base64 data URL.
func (enc *SVGEncoder) EncodeDataURL(ctx context.Context, svg []byte) (string, error) {
	format, err := enc.format()
	if err != nil {
		return "", err
	}
	img, err := enc.Rasterize(ctx, svg)
	if err != nil {
		return "", err
	}
	if err = ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		q := enc.Quality
		if q == 0 {
			q = 90
		}
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: q})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return "", &EncodeError{Op: "encode", Err: err}
	}
	return DataURL(format, buf.Bytes()), nil
}

// Rasterize draws the svg into a new RGBA image.
func (enc *SVGEncoder) Rasterize(ctx context.Context, svg []byte) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, ok := findRoot(svg)
	if !ok {
		return nil, &EncodeError{Op: "parse", Err: errors.New("no svg element")}
	}
	w, h := root.size()
	scale := enc.Scale
	if scale <= 0 {
		scale = 1
	}
	fw, fh := w*scale, h*scale
	// NaN fails both comparisons
	if !(fw > 0 && fh > 0) {
		return nil, &EncodeError{Op: "size", Err: ErrEmptyImage}
	}
	// checked in float64 before the int conversion so huge values cannot wrap
	if fw > MaxPixels || fh > MaxPixels || fw*fh > MaxPixels {
		return nil, &EncodeError{Op: "size", Err: fmt.Errorf("%w: %gx%g", ErrTooLarge, fw, fh)}
	}
	pw, ph := int(math.Ceil(fw)), int(math.Ceil(fh))
	if pw*ph > MaxPixels {
		return nil, &EncodeError{Op: "size", Err: fmt.Errorf("%w: %dx%d", ErrTooLarge, pw, ph)}
	}
	bag.Logger.Debugf("Rasterize svg %dx%d px", pw, ph)

	// oksvg does not know about CSS units, it gets plain numbers
	icon, err := oksvg.ReadIconStream(bytes.NewReader(root.normalize(svg, w, h)), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, &EncodeError{Op: "parse", Err: err}
	}

	img := image.NewRGBA(image.Rect(0, 0, pw, ph))
	bg := enc.Background
	if bg == nil {
		if f, _ := enc.format(); f == FormatJPEG {
			bg = color.White
		}
	}
	if bg != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}
	icon.SetTarget(0, 0, float64(pw), float64(ph))
	scanner := rasterx.NewScannerGV(pw, ph, img, img.Bounds())
	dasher := rasterx.NewDasher(pw, ph, scanner)
	icon.Draw(dasher, 1.0)
	return img, nil
}

// Size returns the CSS pixel size of the root svg element. width and height
// attributes win, negative or unparsable ones are ignored. A missing
// dimension follows the aspect ratio of the viewBox. Without both the HTML
// default of 300x150 is used.
func Size(svg []byte) (float64, float64) {
	root, ok := findRoot(svg)
	if !ok {
		return DefaultWidth, DefaultHeight
	}
	return root.size()
}
