package assistant

import (
	"regexp"
	"strconv"
)

// pageRefRe matches "page 12" and "[Page 12]" style references in answer
// text. The capture is the page number.
var pageRefRe = regexp.MustCompile(`(?i)\bpage\s+(\d{1,5})\b`)

// ExtractPageReferences returns the distinct page numbers referenced in
// text, each at most once, in first-seen order. Zero and unparseable
// matches are skipped.
func ExtractPageReferences(text string) []int {
	matches := pageRefRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool, len(matches))
	var pages []int
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		pages = append(pages, n)
	}
	return pages
}
