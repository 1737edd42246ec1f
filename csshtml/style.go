package csshtml

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/speedata/css/scanner"
)

// OldDisplayAttribute stores the inline display value an element had before
// Hide set it to none.
const OldDisplayAttribute = "data-olddisplay"

// Declaration is a single property: value pair of an inline style attribute.
type Declaration struct {
	Property string
	Value    string
}

// ParseStyle splits the contents of a style attribute into declarations.
// Properties are lower case, values keep their tokens (including
// !important). Declarations without a colon or without a property name are
// dropped.
func ParseStyle(style string) []Declaration {
	return parseDeclarations(TokenizeCSSString(style))
}

func parseDeclarations(toks Tokenstream) []Declaration {
	var decls []Declaration
	start := 0
	colon := -1
	flush := func(end int) {
		if colon > start {
			key := strings.ToLower(trimSpace(toks[start:colon]).String())
			value := trimSpace(toks[colon+1 : end]).String()
			if key != "" {
				decls = append(decls, Declaration{Property: key, Value: value})
			}
		}
		start = end + 1
		colon = -1
	}
	for i, t := range toks {
		if t.Type != scanner.Delim {
			continue
		}
		switch t.Value {
		case ":":
			if colon < 0 {
				colon = i
			}
		case ";":
			flush(i)
		}
	}
	flush(len(toks))
	return decls
}

// FormatStyle is the inverse of ParseStyle.
func FormatStyle(decls []Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.Property+": "+d.Value)
	}
	return strings.Join(parts, "; ")
}

func display(decls []Declaration) (string, bool) {
	for i := len(decls) - 1; i >= 0; i-- {
		if decls[i].Property == "display" {
			return decls[i].Value, true
		}
	}
	return "", false
}

func isNone(value string) bool {
	f := strings.Fields(strings.ToLower(value))
	return len(f) > 0 && f[0] == "none"
}

func withoutDisplay(decls []Declaration) []Declaration {
	ret := decls[:0:0]
	for _, d := range decls {
		if d.Property != "display" {
			ret = append(ret, d)
		}
	}
	return ret
}

func setStyle(sel *goquery.Selection, decls []Declaration) {
	if len(decls) == 0 {
		sel.RemoveAttr("style")
		return
	}
	sel.SetAttr("style", FormatStyle(decls))
}

// Hide sets display: none on every element of the selection. A previous
// inline display value is kept in OldDisplayAttribute for Show.
func Hide(sel *goquery.Selection) {
	sel.Each(func(i int, elt *goquery.Selection) {
		style, _ := elt.Attr("style")
		decls := ParseStyle(style)
		if d, ok := display(decls); ok && !isNone(d) {
			elt.SetAttr(OldDisplayAttribute, d)
		}
		decls = append(withoutDisplay(decls), Declaration{Property: "display", Value: "none"})
		setStyle(elt, decls)
	})
}

// Show reverts the effect of Hide. Elements that are hidden by an inline
// display: none become visible no matter who hid them. If the style rules of
// sheet (may be nil) still hide an element, Show writes an inline display
// that overrides them, the remembered value or inline. Visible elements stay
// untouched.
func Show(sel *goquery.Selection, sheet *Stylesheet) {
	sel.Each(func(i int, elt *goquery.Selection) {
		style, _ := elt.Attr("style")
		decls := ParseStyle(style)
		old, hasOld := elt.Attr(OldDisplayAttribute)
		changed := false
		if d, ok := display(decls); ok && isNone(d) {
			decls = withoutDisplay(decls)
			elt.RemoveAttr(OldDisplayAttribute)
			if hasOld {
				decls = append(decls, Declaration{Property: "display", Value: old})
			}
			changed = true
		}
		if v, imp, ok := sheet.Cascaded(elt.Get(0), "display"); ok && isNone(v) {
			inline, hasInline := display(decls)
			inline, inlineImp := splitImportant(inline)
			if !hasInline || (imp && !inlineImp) {
				val := "inline"
				if hasInline {
					val = strings.TrimSpace(inline)
				}
				if imp {
					val += " !important"
				}
				decls = append(withoutDisplay(decls), Declaration{Property: "display", Value: val})
				changed = true
			}
		}
		if changed {
			setStyle(elt, decls)
		}
	})
}

// IsHidden reports whether the first element of the selection carries an
// inline display: none.
func IsHidden(sel *goquery.Selection) bool {
	style, ok := sel.Attr("style")
	if !ok {
		return false
	}
	d, ok := display(ParseStyle(style))
	return ok && isNone(d)
}
