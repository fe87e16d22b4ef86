package answer

import (
	"sort"

	"github.com/caldrin/answerhub/internal/models"
)

// metadata keys tried in order when deriving a source title.
var titleKeys = []string{"display_name", "title", "filename"}

// unknownSource labels chunks whose metadata carries no usable title.
const unknownSource = "Unknown document"

// Assemble turns the capped, ranked hits into ordered context chunks and
// the deduplicated, lexicographically sorted source title list.
func Assemble(hits []models.Hit) ([]models.RankedChunk, []string) {
	chunks := make([]models.RankedChunk, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	sources := make([]string, 0, len(hits))

	for _, hit := range hits {
		title := TitleFor(hit.Metadata)
		chunks = append(chunks, models.RankedChunk{Content: hit.Content, Source: title})
		if !seen[title] {
			seen[title] = true
			sources = append(sources, title)
		}
	}

	sort.Strings(sources)
	return chunks, sources
}

// TitleFor derives the display title from chunk metadata by priority:
// display_name, then title, then filename.
func TitleFor(metadata map[string]string) string {
	for _, key := range titleKeys {
		if v := metadata[key]; v != "" {
			return v
		}
	}
	return unknownSource
}
