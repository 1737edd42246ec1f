package csshtml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/speedata/svgoverlay/bag"
	"golang.org/x/net/html"
)

// OpenHTMLFile opens and parses an HTML file
func OpenHTMLFile(filename string) (*goquery.Document, error) {
	bag.Logger.Infof("Read file %s", filename)
	r, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadHTML(r)
}

// ReadHTMLString parses the HTML text.
func ReadHTMLString(htmltext string) (*goquery.Document, error) {
	return ReadHTML(strings.NewReader(htmltext))
}

// ReadHTML parses an HTML document from r. The returned document is the
// handle all tree operations work on.
func ReadHTML(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	return doc, nil
}

// WriteHTML serializes the complete document.
func WriteHTML(w io.Writer, doc *goquery.Document) error {
	if doc == nil || len(doc.Nodes) == 0 {
		return fmt.Errorf("write html: empty document")
	}
	return html.Render(w, doc.Nodes[0])
}
