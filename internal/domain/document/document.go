package document

import (
	"fmt"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
)

// Document is one journal entry (immutable value object).
// Raw fields come straight from the input table; normalized text is
// attached per facet by the normalizer.
type Document struct {
	internalID int32
	raw        map[facet.Facet]string
	text       map[facet.Facet]string
}

// New creates a Document. Missing (null) fields are passed as empty strings.
func New(internalID int32, transcript, people, places, topics string) Document {
	return Document{
		internalID: internalID,
		raw: map[facet.Facet]string{
			facet.Transcript: transcript,
			facet.People:     people,
			facet.Places:     places,
			facet.Topics:     topics,
		},
	}
}

// InternalID returns the stable join key.
func (d *Document) InternalID() int32 { return d.internalID }

// Raw returns the unnormalized field backing a facet.
func (d *Document) Raw(f facet.Facet) string { return d.raw[f] }

// Text returns the normalized text for a facet. Falls back to the raw field
// when the document has not been normalized.
func (d *Document) Text(f facet.Facet) string {
	if t, ok := d.text[f]; ok {
		return t
	}
	return d.raw[f]
}

// IsNormalized reports whether normalized text is attached for the facet.
func (d *Document) IsNormalized(f facet.Facet) bool {
	_, ok := d.text[f]
	return ok
}

// WithText returns a copy with normalized text attached for the facet.
func (d Document) WithText(f facet.Facet, text string) Document {
	next := make(map[facet.Facet]string, len(d.text)+1)
	for k, v := range d.text {
		next[k] = v
	}
	next[f] = text
	d.text = next
	return d
}

// Corpus is an ordered document set. Matrix index i always refers to Docs[i].
type Corpus struct {
	Docs []Document
}

// IDs returns internal ids in corpus order.
func (c *Corpus) IDs() []int32 {
	ids := make([]int32, len(c.Docs))
	for i := range c.Docs {
		ids[i] = c.Docs[i].InternalID()
	}
	return ids
}

// Texts returns the normalized text of every document for a facet, in corpus order.
func (c *Corpus) Texts(f facet.Facet) []string {
	out := make([]string, len(c.Docs))
	for i := range c.Docs {
		out[i] = c.Docs[i].Text(f)
	}
	return out
}

// Len returns the number of documents.
func (c *Corpus) Len() int { return len(c.Docs) }

// Find returns the document with the given internal id.
func (c *Corpus) Find(id int32) (Document, bool) {
	for i := range c.Docs {
		if c.Docs[i].InternalID() == id {
			return c.Docs[i], true
		}
	}
	return Document{}, false
}

// Index builds an internal_id -> position lookup, rejecting duplicates.
func (c *Corpus) Index() (map[int32]int, error) {
	idx := make(map[int32]int, len(c.Docs))
	for i := range c.Docs {
		id := c.Docs[i].InternalID()
		if _, dup := idx[id]; dup {
			return nil, fmt.Errorf("internal_id %d: %w", id, domain.ErrDuplicateID)
		}
		idx[id] = i
	}
	return idx, nil
}
