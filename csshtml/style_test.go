package csshtml

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func TestParseStyle(t *testing.T) {
	testCases := []struct {
		input string
		want  []Declaration
	}{
		{"", nil},
		{"display:none", []Declaration{{"display", "none"}}},
		{"Color : red ; DISPLAY: inline-block;", []Declaration{{"color", "red"}, {"display", "inline-block"}}},
		{"color: red;;display: block", []Declaration{{"color", "red"}, {"display", "block"}}},
		{"nocolon; : empty; float: left", []Declaration{{"float", "left"}}},
		{"font-family: serif /* comment */", []Declaration{{"font-family", "serif"}}},
	}
	for _, tC := range testCases {
		t.Run(tC.input, func(t *testing.T) {
			got := ParseStyle(tC.input)
			if diff := cmp.Diff(tC.want, got); diff != "" {
				t.Errorf("ParseStyle(%q) mismatch (-want +got):\n%s", tC.input, diff)
			}
		})
	}
}

func TestFormatStyle(t *testing.T) {
	got := FormatStyle([]Declaration{{"color", "red"}, {"display", "none"}})
	if want := "color: red; display: none"; got != want {
		t.Errorf("FormatStyle() = %q, want %q", got, want)
	}
}

func TestHideShow(t *testing.T) {
	testCases := []struct {
		name      string
		style     string
		hidden    string
		shown     string
		hasShown  bool
		oldExists bool
	}{
		{"no style", "", "display: none", "", false, false},
		{"other props", "float: left", "float: left; display: none", "float: left", true, false},
		{"old display", "display: inline", "display: none", "display: inline", true, true},
		{"already hidden", "display: none", "display: none", "", false, false},
	}
	for _, tC := range testCases {
		t.Run(tC.name, func(t *testing.T) {
			markup := `<div id="x"></div>`
			if tC.style != "" {
				markup = `<div id="x" style="` + tC.style + `"></div>`
			}
			doc, err := ReadHTMLString(markup)
			if err != nil {
				t.Fatal(err)
			}
			sel := doc.Find("#x")
			Hide(sel)
			if got, _ := sel.Attr("style"); got != tC.hidden {
				t.Errorf("after Hide style = %q, want %q", got, tC.hidden)
			}
			if !IsHidden(sel) {
				t.Error("IsHidden() = false after Hide")
			}
			if _, ok := sel.Attr(OldDisplayAttribute); ok != tC.oldExists {
				t.Errorf("old display attribute present = %t, want %t", ok, tC.oldExists)
			}
			Show(sel, nil)
			got, ok := sel.Attr("style")
			if ok != tC.hasShown || got != tC.shown {
				t.Errorf("after Show style = %q (%t), want %q (%t)", got, ok, tC.shown, tC.hasShown)
			}
			if IsHidden(sel) {
				t.Error("IsHidden() = true after Show")
			}
			if _, ok := sel.Attr(OldDisplayAttribute); ok {
				t.Error("old display attribute not removed")
			}
		})
	}
}

func TestShowVisibleUntouched(t *testing.T) {
	doc, err := ReadHTMLString(`<p style="display: block">a</p><p>b</p>`)
	if err != nil {
		t.Fatal(err)
	}
	Show(doc.Find("p"), nil)
	var styles []string
	doc.Find("p").Each(func(i int, sel *goquery.Selection) {
		s, _ := sel.Attr("style")
		styles = append(styles, s)
	})
	if diff := cmp.Diff([]string{"display: block", ""}, styles); diff != "" {
		t.Errorf("styles changed (-want +got):\n%s", diff)
	}
}

func TestWriteHTML(t *testing.T) {
	doc, err := ReadHTMLString(`<p>Hello <b>world</b></p>`)
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	if err = WriteHTML(&sb, doc); err != nil {
		t.Fatal(err)
	}
	want := `<html><head></head><body><p>Hello <b>world</b></p></body></html>`
	if got := sb.String(); got != want {
		t.Errorf("WriteHTML() = %q, want %q", got, want)
	}
	if err = WriteHTML(&sb, nil); err == nil {
		t.Error("expected error for nil document")
	}
}
