package verify

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SoftDetector examines a parsed 2xx HTML response to decide whether it is
// really an error page served with a success status, as CDNs and origin
// shells like to do for missing assets.
type SoftDetector func(doc *goquery.Document) (detected bool, reason string)

// DefaultSoftDetectors returns the standard list of soft-failure detectors.
func DefaultSoftDetectors() []SoftDetector {
	return []SoftDetector{
		detectErrorTitle,
		detectErrorHeading,
	}
}

var errorMarkers = []string{
	"404",
	"not found",
	"access denied",
	"forbidden",
	"page unavailable",
	"temporarily unavailable",
}

// sniffSoftFailure runs the body through the detectors. A body that does
// not parse as HTML is treated as a genuine success.
func sniffSoftFailure(body []byte, detectors []SoftDetector) (bool, string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false, ""
	}
	for _, d := range detectors {
		if detected, reason := d(doc); detected {
			return true, reason
		}
	}
	return false, ""
}

func detectErrorTitle(doc *goquery.Document) (bool, string) {
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text()))
	if title == "" {
		return false, ""
	}
	for _, marker := range errorMarkers {
		if strings.Contains(title, marker) {
			return true, "title: " + title
		}
	}
	return false, ""
}

func detectErrorHeading(doc *goquery.Document) (bool, string) {
	heading := strings.ToLower(strings.TrimSpace(doc.Find("h1").First().Text()))
	if heading == "" {
		return false, ""
	}
	for _, marker := range errorMarkers {
		if strings.Contains(heading, marker) {
			return true, "heading: " + heading
		}
	}
	return false, ""
}
