// Package overlay swaps the inline svg elements of an HTML page for raster
// images and back. ConvertAllSVGsToPngs hides each svg and inserts an <img>
// right after it whose src is filled in asynchronously. RestoreSVGs removes
// these images and shows all svg elements again.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"runtime"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/speedata/svgoverlay/bag"
	"github.com/speedata/svgoverlay/csshtml"
	"github.com/speedata/svgoverlay/raster"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMarkerClass is the class of every raster overlay.
const DefaultMarkerClass = "removeImgs"

// ConversionAttribute holds the id of the conversion that created an overlay.
const ConversionAttribute = "data-conversion"

var (
	// ErrMarkerClass is returned for a marker class that is not a CSS identifier.
	ErrMarkerClass = errors.New("invalid marker class")
	classRE        = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)
)

// Toggle converts the vector elements of one document.
type Toggle struct {
	doc         *goquery.Document
	enc         raster.Encoder
	ctx         context.Context
	marker      string
	concurrency int
	vectors     cascadia.Selector
	overlays    cascadia.Selector
	// mu guards the document. Encoding callbacks run on other goroutines.
	mu sync.Mutex
}

// Option configures a Toggle.
type Option func(*Toggle)

// WithMarkerClass sets the class used to tag the raster overlays.
func WithMarkerClass(class string) Option {
	return func(t *Toggle) {
		t.marker = class
	}
}

// WithConcurrency limits the number of encodings running at the same time.
// Values below one mean the number of CPUs.
func WithConcurrency(n int) Option {
	return func(t *Toggle) {
		t.concurrency = n
	}
}

// WithContext sets the context handed to the encoder. Cancelling it makes
// pending encodings fail, which leaves their overlays without a source.
func WithContext(ctx context.Context) Option {
	return func(t *Toggle) {
		t.ctx = ctx
	}
}

// New returns a Toggle working on doc.
func New(doc *goquery.Document, enc raster.Encoder, opts ...Option) (*Toggle, error) {
	if doc == nil {
		return nil, fmt.Errorf("overlay: no document")
	}
	if enc == nil {
		return nil, fmt.Errorf("overlay: no encoder")
	}
	t := &Toggle{
		doc:    doc,
		enc:    enc,
		ctx:    context.Background(),
		marker: DefaultMarkerClass,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.concurrency < 1 {
		t.concurrency = runtime.NumCPU()
	}
	if t.ctx == nil {
		t.ctx = context.Background()
	}
	if !classRE.MatchString(t.marker) {
		return nil, fmt.Errorf("%w %q", ErrMarkerClass, t.marker)
	}
	var err error
	if t.overlays, err = cascadia.Compile("." + t.marker); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrMarkerClass, t.marker, err)
	}
	t.vectors = cascadia.MustCompile("svg")
	return t, nil
}

// MarkerClass returns the class of the overlays.
func (t *Toggle) MarkerClass() string {
	return t.marker
}

// ConvertAllSVGsToPngs hides every svg element of the document and inserts
// an overlay image directly after it. The encoding of each svg runs in the
// background; the overlay gets its src attribute once that encoding is done.
// The callbacks fire in no particular order and always after this method
// has returned. An encoding that fails leaves its overlay without src.
func (t *Toggle) ConvertAllSVGsToPngs() *Conversion {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := newConversion()
	var jobs []job
	t.doc.FindMatcher(t.vectors).Each(func(i int, svg *goquery.Selection) {
		img := t.newOverlay(c.ID())
		// the markup is taken before hiding, so the bitmap shows the
		// visible svg
		markup, err := goquery.OuterHtml(svg)
		if err != nil {
			bag.Logger.Debugf("Cannot serialize svg %d: %s", i, err)
		} else {
			jobs = append(jobs, job{markup: []byte(markup), img: img})
		}
		csshtml.Hide(svg)
		svg.AfterNodes(img)
		c.overlays = append(c.overlays, img)
	})
	bag.Logger.Infof("Convert %d svg elements (conversion %s)", len(c.overlays), c.ID())
	go t.run(c, jobs)
	return c
}

func (t *Toggle) newOverlay(id string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "img",
		DataAtom: atom.Img,
		Attr: []html.Attribute{
			{Key: "class", Val: t.marker},
			{Key: ConversionAttribute, Val: id},
		},
	}
}

// RestoreSVGs removes every element carrying the marker class and shows all
// svg elements, whether they were hidden by ConvertAllSVGsToPngs, by an
// inline style or by a rule in one of the document's <style> elements.
func (t *Toggle) RestoreSVGs() {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := t.doc.FindMatcher(t.overlays).Remove()
	svgs := t.doc.FindMatcher(t.vectors)
	csshtml.Show(svgs, csshtml.DocumentStylesheet(t.doc))
	bag.Logger.Infof("Removed %d overlays, showing %d svg elements", removed.Length(), svgs.Length())
}

// Overlays returns the elements carrying the marker class. The selection
// is only stable after all pending conversions are done.
func (t *Toggle) Overlays() *goquery.Selection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doc.FindMatcher(t.overlays)
}

// Inspect calls fn with the document while no callback can modify it.
func (t *Toggle) Inspect(fn func(doc *goquery.Document)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.doc)
}

// Render writes the current state of the document as HTML.
func (t *Toggle) Render(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return csshtml.WriteHTML(w, t.doc)
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
