package composer

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-city-guide/internal/types"
)

const starGlyph = "⭐️"

// InsufficientData is returned when the retrieval service found no evidence
// at all for the question.
var InsufficientData = types.ComposedAnswer{
	Text:         "Sorry, I don't have enough reviews for this location.",
	Insufficient: true,
}

// Markup controls how fragment text is encoded and how a citation index is
// written into the answer. Marker output is never passed through Escape.
type Markup struct {
	Escape func(string) string
	Marker func(index int) string
}

// PlainText keeps fragments verbatim and writes markers as [n].
var PlainText = Markup{
	Escape: func(s string) string { return s },
	Marker: func(index int) string { return "[" + strconv.Itoa(index) + "]" },
}

// HTML escapes fragments and writes markers as <sup>[n]</sup>.
var HTML = Markup{
	Escape: html.EscapeString,
	Marker: func(index int) string { return "<sup>[" + strconv.Itoa(index) + "]</sup>" },
}

// ValidateCitationGroups rejects groups holding a citation that cannot be
// numbered or rendered. It must run before ComposeGroundedAnswer.
func ValidateCitationGroups(groups []types.CitationGroup) error {
	for i, g := range groups {
		for j, c := range g.References {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("group %d reference %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// ComposeGroundedAnswer concatenates the generated fragments and numbers their
// sources. Each distinct URI gets the next 1-based index on first sight and
// keeps it for the rest of the answer.
func ComposeGroundedAnswer(groups []types.CitationGroup) types.ComposedAnswer {
	return Compose(groups, PlainText)
}

// Compose is ComposeGroundedAnswer with a caller-chosen Markup. References and
// the InsufficientData sentinel are always plain text.
func Compose(groups []types.CitationGroup, m Markup) types.ComposedAnswer {
	if len(groups) == 0 {
		return InsufficientData
	}

	indexByURI := make(map[string]int)
	references := make([]string, 0)
	var text strings.Builder

	for _, g := range groups {
		text.WriteString(m.Escape(g.GeneratedText))
		for _, c := range g.References {
			idx, seen := indexByURI[c.URI]
			if !seen {
				references = append(references, formatReference(c))
				idx = len(references)
				indexByURI[c.URI] = idx
			}
			text.WriteString(m.Marker(idx))
		}
	}

	return types.ComposedAnswer{
		Text:       text.String(),
		References: references,
	}
}

func formatReference(c types.Citation) string {
	stars := min(max(c.Rating, 0), types.MaxRating)
	return strings.Repeat(starGlyph, stars) + " " + c.Text
}
