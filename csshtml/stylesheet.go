package csshtml

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/speedata/css/scanner"
	"github.com/speedata/svgoverlay/bag"
	"golang.org/x/net/html"
)

var importantRE = regexp.MustCompile(`(?i)\s*!\s*important\s*$`)

type selRule struct {
	selector    cascadia.Sel
	specificity cascadia.Specificity
	order       int
	decls       []Declaration
}

// Stylesheet holds the style rules of a document. It only answers which
// declaration of a property wins for an element, no inheritance.
type Stylesheet struct {
	rules []selRule
}

// ParseStylesheet reads the rules of a CSS text. The contents of @media and
// @supports blocks are applied unconditionally, all other at-rules are
// ignored, as are rules with selectors cascadia cannot parse.
func ParseStylesheet(css string) *Stylesheet {
	s := &Stylesheet{}
	s.add(TokenizeCSSString(css))
	return s
}

// DocumentStylesheet collects the rules of all <style> elements of the
// document in document order.
func DocumentStylesheet(doc *goquery.Document) *Stylesheet {
	s := &Stylesheet{}
	doc.Find("style").Each(func(i int, sel *goquery.Selection) {
		s.add(TokenizeCSSString(sel.Text()))
	})
	return s
}

// Return the position after the matching closing brace "}"
func findClosingBrace(toks Tokenstream) int {
	level := 1
	for i, t := range toks {
		if t.Type == scanner.Delim {
			switch t.Value {
			case "{":
				level++
			case "}":
				level--
				if level == 0 {
					return i + 1
				}
			}
		}
	}
	return len(toks)
}

func (s *Stylesheet) add(toks Tokenstream) {
	start := 0
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Type != scanner.Delim {
			continue
		}
		switch t.Value {
		case ";":
			// at-rule without block (@import, @charset)
			if prelude := trimSpace(toks[start:i]); len(prelude) > 0 && prelude[0].Type == scanner.AtKeyword {
				start = i + 1
			}
		case "{":
			// closing is the index of the matching "}"
			closing := i + findClosingBrace(toks[i+1:])
			block := toks[i+1 : closing]
			prelude := trimSpace(toks[start:i])
			switch {
			case len(prelude) > 0 && prelude[0].Type == scanner.AtKeyword:
				if name := strings.ToLower(prelude[0].Value); name == "media" || name == "supports" {
					s.add(block)
				}
			case len(prelude) > 0:
				s.addRule(prelude.String(), parseDeclarations(block))
			}
			i = closing
			start = closing + 1
		}
	}
}

func (s *Stylesheet) addRule(selector string, decls []Declaration) {
	if len(decls) == 0 {
		return
	}
	selectors, err := cascadia.ParseGroup(selector)
	if err != nil {
		bag.Logger.Debugf("Ignore CSS rule %q: %s", selector, err)
		return
	}
	for _, sel := range selectors {
		s.rules = append(s.rules, selRule{
			selector:    sel,
			specificity: sel.Specificity(),
			order:       len(s.rules),
			decls:       decls,
		})
	}
}

// splitImportant removes a trailing !important from the value.
func splitImportant(value string) (string, bool) {
	if loc := importantRE.FindStringIndex(value); loc != nil {
		return value[:loc[0]], true
	}
	return value, false
}

// Cascaded returns the value of the property the style rules assign to the
// node, ignoring the inline style. A rule wins by !important, then by
// specificity, then by coming later.
func (s *Stylesheet) Cascaded(n *html.Node, property string) (value string, important bool, ok bool) {
	if s == nil {
		return "", false, false
	}
	var best *selRule
	for i := range s.rules {
		r := &s.rules[i]
		var v string
		var found bool
		for _, d := range r.decls {
			if d.Property == property {
				v, found = d.Value, true
			}
		}
		if !found || !r.selector.Match(n) {
			continue
		}
		val, imp := splitImportant(v)
		switch {
		case best == nil,
			imp && !important,
			imp == important && !r.specificity.Less(best.specificity):
			best, value, important, ok = r, strings.TrimSpace(val), imp, true
		}
	}
	return value, important, ok
}

// Display returns the display value that is in effect for the first node of
// the selection, taking the inline style into account.
func (s *Stylesheet) Display(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	style, _ := sel.Attr("style")
	inline, inlineOK := display(ParseStyle(style))
	inline, inlineImp := splitImportant(inline)
	sheet, sheetImp, sheetOK := s.Cascaded(sel.Get(0), "display")
	if inlineOK && (inlineImp || !sheetImp || !sheetOK) {
		return strings.TrimSpace(inline)
	}
	if sheetOK {
		return strings.TrimSpace(sheet)
	}
	return ""
}

// IsHidden reports whether the first node of the selection has display: none
// by inline style or by the style rules.
func (s *Stylesheet) IsHidden(sel *goquery.Selection) bool {
	return isNone(s.Display(sel))
}
