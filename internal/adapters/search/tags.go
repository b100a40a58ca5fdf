package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// MaxIndexedTerms caps the tags stored per document.
const MaxIndexedTerms = 100

var tagFolder = cases.Fold()

// buildTags case-folds and de-duplicates the values, dropping blanks.
func buildTags(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	tags := make([]string, 0, len(values))
	for _, v := range values {
		tag := strings.Join(strings.Fields(tagFolder.String(v)), " ")
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == MaxIndexedTerms {
			break
		}
	}
	return tags
}
