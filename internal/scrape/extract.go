package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FirstBlockFromMarkdown returns the first prose paragraph of scraped
// markdown, skipping headings, images, list items, and link-only lines.
func FirstBlockFromMarkdown(markdown string) string {
	for _, block := range strings.Split(markdown, "\n\n") {
		line := strings.TrimSpace(strings.ReplaceAll(block, "\n", " "))
		if line == "" {
			continue
		}
		switch line[0] {
		case '#', '!', '>', '-', '*', '|', '[':
			continue
		}
		if len(line) < 60 {
			continue
		}
		return line
	}
	return ""
}

// SummaryFromHTML extracts a description from page metadata, falling
// back to the first substantial paragraph.
func SummaryFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	metaSelectors := []string{
		`meta[name="description"]`,
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`,
	}
	for _, selector := range metaSelectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if text := strings.TrimSpace(content); len(text) >= 40 {
				return text
			}
		}
	}

	var paragraph string
	doc.Find("article p, main p, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if len(text) >= 60 {
			paragraph = text
			return false
		}
		return true
	})
	return paragraph
}
