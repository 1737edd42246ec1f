package raster

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/speedata/svgoverlay/bag"
)

var (
	// quoted attribute values may contain '>'
	rootStartRE = regexp.MustCompile(`^(?i)<svg((?:\s+[^\s=/>]+(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'>]+))?)*)\s*(/?)>`)
	attributeRE = regexp.MustCompile(`([^\s=/]+)(?:\s*=\s*("[^"]*"|'[^']*'|[^\s"'>/]+))?`)
)

type attribute struct {
	name, raw, value string
}

// svgRoot is the start tag of the outermost svg element.
type svgRoot struct {
	start, end  int
	selfClosing bool
	attrs       []attribute
}

// skipProlog returns the offset of the first start tag, skipping white
// space, processing instructions, comments and declarations.
func skipProlog(svg []byte) int {
	i := 0
	for {
		for i < len(svg) && (svg[i] == ' ' || svg[i] == '\t' || svg[i] == '\r' || svg[i] == '\n') {
			i++
		}
		rest := svg[i:]
		var end []byte
		switch {
		case bytes.HasPrefix(rest, []byte("<?")):
			end = []byte("?>")
		case bytes.HasPrefix(rest, []byte("<!--")):
			end = []byte("-->")
		case bytes.HasPrefix(rest, []byte("<!")):
			end = []byte(">")
		default:
			return i
		}
		n := bytes.Index(rest[2:], end)
		if n < 0 {
			return len(svg)
		}
		i += 2 + n + len(end)
	}
}

// findRoot locates the start tag of the root element, which must be an svg.
func findRoot(svg []byte) (svgRoot, bool) {
	offset := skipProlog(svg)
	loc := rootStartRE.FindSubmatchIndex(svg[offset:])
	if loc == nil {
		return svgRoot{}, false
	}
	r := svgRoot{start: offset + loc[0], end: offset + loc[1]}
	r.selfClosing = loc[5] > loc[4]
	inner := svg[offset+loc[2] : offset+loc[3]]
	for _, m := range attributeRE.FindAllSubmatch(inner, -1) {
		a := attribute{name: string(m[1]), raw: string(m[0])}
		v := string(m[2])
		if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') {
			v = v[1 : len(v)-1]
		}
		a.value = v
		r.attrs = append(r.attrs, a)
	}
	return r, true
}

func (r svgRoot) attr(name string) (string, bool) {
	for _, a := range r.attrs {
		if strings.EqualFold(a.name, name) {
			return a.value, true
		}
	}
	return "", false
}

// viewBox returns min-x, min-y, width and height of the viewBox attribute.
func (r svgRoot) viewBox() ([4]float64, bool) {
	var vb [4]float64
	v, ok := r.attr("viewBox")
	if !ok {
		return vb, false
	}
	f := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(f) != 4 {
		return vb, false
	}
	for i, s := range f {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return vb, false
		}
		vb[i] = n
	}
	return vb, vb[2] > 0 && vb[3] > 0
}

func (r svgRoot) length(name string) (float64, bool) {
	v, ok := r.attr(name)
	if !ok {
		return 0, false
	}
	l, err := bag.Pixels(v)
	if err != nil {
		bag.Logger.Debugf("svg %s: %s", name, err)
		return 0, false
	}
	// an explicit zero is kept, it yields an empty image
	return l, l >= 0
}

func (r svgRoot) size() (float64, float64) {
	w, haveW := r.length("width")
	h, haveH := r.length("height")
	vb, haveVB := r.viewBox()
	switch {
	case haveW && haveH:
		return w, h
	case haveW && haveVB:
		return w, w * vb[3] / vb[2]
	case haveH && haveVB:
		return h * vb[2] / vb[3], h
	case haveVB:
		return vb[2], vb[3]
	case haveW:
		return w, DefaultHeight
	case haveH:
		return DefaultWidth, h
	}
	return DefaultWidth, DefaultHeight
}

// normalize replaces the width, height and viewBox attributes of the root
// element by plain numbers. Without a viewBox one user unit is one CSS pixel.
func (r svgRoot) normalize(svg []byte, w, h float64) []byte {
	vb, ok := r.viewBox()
	if !ok {
		vb = [4]float64{0, 0, w, h}
	}
	var sb strings.Builder
	sb.Write(svg[:r.start])
	sb.WriteString("<svg")
	for _, a := range r.attrs {
		switch strings.ToLower(a.name) {
		case "width", "height", "viewbox":
			continue
		}
		sb.WriteByte(' ')
		sb.WriteString(a.raw)
	}
	ff := func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	sb.WriteString(` width="` + ff(w) + `" height="` + ff(h) + `"`)
	sb.WriteString(` viewBox="` + ff(vb[0]) + " " + ff(vb[1]) + " " + ff(vb[2]) + " " + ff(vb[3]) + `"`)
	if r.selfClosing {
		sb.WriteString("/>")
	} else {
		sb.WriteByte('>')
	}
	sb.Write(svg[r.end:])
	return []byte(sb.String())
}
