package types

import (
	"errors"
	"fmt"
)

// MaxRating is the highest star rating a review can carry.
const MaxRating = 5

// ErrMalformedCitation marks a retrieved reference that is missing its URI,
// rating or text, or whose rating is out of range.
var ErrMalformedCitation = errors.New("malformed citation")

// Citation is one retrieved review supporting a fragment of generated text.
type Citation struct {
	URI    string `json:"uri"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// NewCitation builds a Citation from the loosely-typed fields of a retrieval
// response. A nil rating means the source metadata had no star rating.
func NewCitation(uri string, rating *int, text string) (Citation, error) {
	c := Citation{URI: uri, Text: text}
	if rating == nil {
		return Citation{}, fmt.Errorf("%w: missing rating for %q", ErrMalformedCitation, uri)
	}
	c.Rating = *rating
	if err := c.Validate(); err != nil {
		return Citation{}, err
	}
	return c, nil
}

// Validate reports whether the citation can be numbered and rendered.
func (c Citation) Validate() error {
	switch {
	case c.URI == "":
		return fmt.Errorf("%w: missing uri", ErrMalformedCitation)
	case c.Text == "":
		return fmt.Errorf("%w: missing text for %q", ErrMalformedCitation, c.URI)
	case c.Rating < 0 || c.Rating > MaxRating:
		return fmt.Errorf("%w: rating %d out of range for %q", ErrMalformedCitation, c.Rating, c.URI)
	}
	return nil
}

// CitationGroup is one fragment of generated answer text plus the references
// supporting it.
type CitationGroup struct {
	GeneratedText string     `json:"generated_text"`
	References    []Citation `json:"references"`
}

// ComposedAnswer is the rendered answer of a grounded question. Text carries
// inline markers that index into References (1-based), written as [n] in plain
// text or <sup>[n]</sup> in HTML.
type ComposedAnswer struct {
	Text         string   `json:"text"`
	References   []string `json:"references"`
	Insufficient bool     `json:"insufficient"`
}
