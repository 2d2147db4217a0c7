package checker

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	sharederrors "github.com/khanhnv2901/sitescan/internal/shared/errors"
)

// ParseHTML extracts the title and element counts from an HTML body. The
// parser is lenient; on error the zero HTMLStructure is returned alongside an
// error wrapping ErrParse, and callers keep the defaults.
func ParseHTML(r io.Reader) (scan.HTMLStructure, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return scan.HTMLStructure{}, fmt.Errorf("%w: %v", sharederrors.ErrParse, err)
	}

	var structure scan.HTMLStructure
	if title := doc.Find("title").First(); title.Length() > 0 {
		if text := strings.TrimSpace(title.Text()); text != "" {
			structure.Title = &text
		}
	}
	structure.MetaTags = doc.Find("meta").Length()
	structure.Scripts = doc.Find("script").Length()
	structure.Iframes = doc.Find("iframe").Length()
	structure.Forms = doc.Find("form").Length()

	return structure, nil
}
