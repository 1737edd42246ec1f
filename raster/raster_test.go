package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

const redRect = `<svg width="20" height="10" viewBox="0 0 20 10"><rect x="0" y="0" width="20" height="10" fill="#ff0000"></rect></svg>`

func TestSize(t *testing.T) {
	testCases := []struct {
		name  string
		svg   string
		wantW float64
		wantH float64
	}{
		{"attributes", `<svg width="20" height="10"></svg>`, 20, 10},
		{"units", `<svg width="1in" height='72pt'></svg>`, 96, 96},
		{"attributes win over viewBox", `<svg width="20" height="10" viewBox="0 0 100 100"></svg>`, 20, 10},
		{"width and viewBox", `<svg width="50" viewBox="0 0 100 50"></svg>`, 50, 25},
		{"height and viewBox", `<svg height="50" viewBox="0,0,100,50"></svg>`, 100, 50},
		{"viewBox only", `<svg viewBox="0 0 40 30"></svg>`, 40, 30},
		{"percent falls back", `<svg width="100%" height="100%" viewBox="0 0 40 30"></svg>`, 40, 30},
		{"nothing", `<svg></svg>`, DefaultWidth, DefaultHeight},
		{"self closing", `<svg width="7" height="8"/>`, 7, 8},
		{"width only", `<svg width="10"></svg>`, 10, DefaultHeight},
		{"bad viewBox", `<svg viewBox="0 0 x 1"></svg>`, DefaultWidth, DefaultHeight},
		{"garbage", `not xml at all`, DefaultWidth, DefaultHeight},
		{"prolog", "<?xml version=\"1.0\"?>\n<!DOCTYPE svg>\n<!-- <svg width=\"1\" height=\"1\"> -->\n<svg width=\"5\" height=\"6\"></svg>", 5, 6},
		{"gt in attribute", `<svg data-label="a > b" width="5" height="6"></svg>`, 5, 6},
		{"root is not svg", `<p><svg width="5" height="6"></svg></p>`, DefaultWidth, DefaultHeight},
		{"svg prefix", `<svgx width="5" height="6"></svgx>`, DefaultWidth, DefaultHeight},
	}
	for _, tC := range testCases {
		t.Run(tC.name, func(t *testing.T) {
			w, h := Size([]byte(tC.svg))
			if w != tC.wantW || h != tC.wantH {
				t.Errorf("Size() = %gx%g, want %gx%g", w, h, tC.wantW, tC.wantH)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	svg := []byte(`<!-- <svg width="1"> --><svg id="x" width="1in" height="0.5in" class='c'><rect></rect></svg>`)
	root, ok := findRoot(svg)
	if !ok {
		t.Fatal("root not found")
	}
	w, h := root.size()
	got := string(root.normalize(svg, w, h))
	want := `<!-- <svg width="1"> --><svg id="x" class='c' width="96" height="48" viewBox="0 0 96 48"><rect></rect></svg>`
	if got != want {
		t.Errorf("normalize() = %q, want %q", got, want)
	}
}

func TestRasterizeUnits(t *testing.T) {
	// no viewBox: user units are pixels, the rect covers the left half
	svg := `<svg width="0.25in" height="12pt"><rect x="0" y="0" width="12" height="16" fill="#00ff00"></rect></svg>`
	img, err := NewSVGEncoder("").Rasterize(context.Background(), []byte(svg))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != image.Pt(24, 16) {
		t.Fatalf("size = %v, want 24x16", got)
	}
	if c := img.RGBAAt(6, 8); c.G < 250 || c.A != 255 {
		t.Errorf("left pixel = %v, want opaque green", c)
	}
	if c := img.RGBAAt(18, 8); c.A != 0 {
		t.Errorf("right pixel = %v, want transparent", c)
	}
}

func TestRasterize(t *testing.T) {
	enc := &SVGEncoder{Scale: 2}
	img, err := enc.Rasterize(context.Background(), []byte(redRect))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 40, 20) {
		t.Fatalf("bounds = %v, want 40x20", got)
	}
	c := img.RGBAAt(20, 10)
	if c.R < 250 || c.G > 5 || c.B > 5 || c.A != 255 {
		t.Errorf("center pixel = %v, want opaque red", c)
	}
}

func TestEncodeDataURLPNG(t *testing.T) {
	enc := NewSVGEncoder("")
	s, err := enc.EncodeDataURL(context.Background(), []byte(redRect))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(s, "data:image/png;base64,") {
		t.Fatalf("unexpected data URL prefix %.40s", s)
	}
	mime, payload, err := ParseDataURL(s)
	if err != nil {
		t.Fatal(err)
	}
	if mime != FormatPNG {
		t.Errorf("mime = %q, want %q", mime, FormatPNG)
	}
	img, err := png.Decode(bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != image.Pt(20, 10) {
		t.Errorf("size = %v, want 20x10", got)
	}
}

func TestEncodeDataURLJPEG(t *testing.T) {
	enc := NewSVGEncoder("jpeg")
	s, err := enc.EncodeDataURL(context.Background(), []byte(`<svg width="8" height="8"></svg>`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(s, "data:image/jpeg;base64,") {
		t.Errorf("unexpected data URL prefix %.40s", s)
	}
	img, err := enc.Rasterize(context.Background(), []byte(`<svg width="8" height="8"></svg>`))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(4, 4); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("jpeg background = %v, want white", got)
	}
}

func TestEncodeErrors(t *testing.T) {
	_, err := NewSVGEncoder("image/gif").EncodeDataURL(context.Background(), []byte(redRect))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("gif: error = %v, want ErrUnsupportedFormat", err)
	}

	_, err = NewSVGEncoder("").EncodeDataURL(context.Background(), []byte(`<svg width="0" height="0" viewBox="0 0 0 0"></svg>`))
	var ee *EncodeError
	if !errors.As(err, &ee) || !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty: error = %v, want EncodeError wrapping ErrEmptyImage", err)
	}

	_, err = NewSVGEncoder("").EncodeDataURL(context.Background(), []byte(`<svg width="100000" height="100000"></svg>`))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("huge: error = %v, want ErrTooLarge", err)
	}

	for _, huge := range []string{
		`<svg width="4294967296" height="4294967296"></svg>`,
		`<svg width="3037000500" height="3037000500"></svg>`,
		`<svg width="1" height="100000000"></svg>`,
		`<svg width="1e300in" height="1e300in"></svg>`,
	} {
		_, err = NewSVGEncoder("").EncodeDataURL(context.Background(), []byte(huge))
		if !errors.Is(err, ErrTooLarge) {
			t.Errorf("%s: error = %v, want ErrTooLarge", huge, err)
		}
	}

	_, err = NewSVGEncoder("").EncodeDataURL(context.Background(), []byte(`<p>no svg root</p>`))
	if !errors.As(err, &ee) || ee.Op != "parse" {
		t.Errorf("no root: error = %v, want parse EncodeError", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewSVGEncoder("").EncodeDataURL(ctx, []byte(redRect))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("canceled: error = %v, want context.Canceled", err)
	}
}
