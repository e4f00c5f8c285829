package scrape

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minRegionLength is the minimum cleaned length for a content region to win
// over the whole-page fallback.
const minRegionLength = 100

// nonContentSelectors are stripped from the document before any extraction.
var nonContentSelectors = []string{"script", "style", "nav", "header", "footer", "aside", "noscript", "iframe"}

// contentSelectors is the priority order for locating the policy region.
// Generic containers first, then manifesto/policy-labelled regions seen on
// Japanese candidate sites.
var contentSelectors = []string{
	"main",
	"article",
	"#main-content",
	".main-content",
	"#content",
	".content",
	".policy",
	".policies",
	"#policy",
	".manifesto",
	"#manifesto",
	".seisaku",
	"#seisaku",
	".post-content",
	".entry-content",
}

// extractHTMLText parses the page and returns (title, text, method).
func extractHTMLText(r io.Reader) (string, string, string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", "", fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	for _, sel := range nonContentSelectors {
		doc.Find(sel).Remove()
	}

	for _, sel := range contentSelectors {
		region := doc.Find(sel).First()
		if region.Length() == 0 {
			continue
		}
		text := NormalizeText(region.Text())
		if len([]rune(text)) > minRegionLength {
			return title, text, "selector:" + sel, nil
		}
	}

	return title, doc.Find("body").Text(), "body", nil
}
