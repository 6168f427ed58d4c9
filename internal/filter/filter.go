package filter

import (
	"io"
	"strings"

	"github.com/FranksOps/sift/internal/errlog"
)

// Match is a report entry retained by the filter: the error message paired
// with the URL that matched. Collection order is scan order.
type Match struct {
	Message string
	URL     string
}

// Progress is invoked periodically during collection with the running
// counts of scanned records and matches. Purely observational; it must not
// block for long since it runs inline with the scan.
type Progress func(scanned, matched int)

// DefaultProgressEvery is the record cadence between progress callbacks.
// Crawl error reports routinely run into millions of entries.
const DefaultProgressEvery = 100000

// Collect drains the reader, keeping every record whose URL contains
// substring. The test is plain case-sensitive containment, so the empty
// substring keeps everything including records with no URL at all. Every
// record is scanned exactly once; there is no early exit. On a read error
// the matches collected so far are discarded and scanned reports how far
// the scan got.
func Collect(r *errlog.Reader, substring string, every int, progress Progress) (matches []Match, scanned int, err error) {
	if every <= 0 {
		every = DefaultProgressEvery
	}

	for {
		rec, rerr := r.Next()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, scanned, rerr
		}
		scanned++

		url := rec.URL()
		if strings.Contains(url, substring) {
			matches = append(matches, Match{Message: rec.Message(), URL: url})
		}

		if progress != nil && scanned%every == 0 {
			progress(scanned, len(matches))
		}
	}

	return matches, scanned, nil
}

// DedupeByURL removes matches whose URL was already seen, keeping the first
// occurrence. Relative order of the survivors is unchanged, so the message
// attached to a URL is always the one from the earliest record. Returns the
// surviving matches and the number of rows removed.
func DedupeByURL(matches []Match) ([]Match, int) {
	if len(matches) == 0 {
		return matches, 0
	}

	seen := make(map[string]struct{}, len(matches))
	kept := make([]Match, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m.URL]; dup {
			continue
		}
		seen[m.URL] = struct{}{}
		kept = append(kept, m)
	}
	return kept, len(matches) - len(kept)
}
