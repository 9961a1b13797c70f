// Package batch holds an ordered set of images and exports them, one at a
// time, as a single framed image or a zip archive of framed images.
package batch

import (
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/framer/internal/models"
	"github.com/lehigh-university-libraries/framer/internal/source"
)

// DefaultMaxItems matches the upload limit of the web form.
const DefaultMaxItems = 10

var (
	// ErrTooManyItems is returned by New when the batch exceeds its limit.
	ErrTooManyItems = errors.New("too many images")
	// ErrNothingExported is returned when every item of a multi-image batch failed.
	ErrNothingExported = errors.New("no images could be exported")
)

// Batch is an ordered list of items with a slideshow cursor. Order is the
// display and export order and never changes.
type Batch struct {
	items []models.BatchItem
	index int
}

// New builds a Batch. max <= 0 disables the size limit.
func New(items []models.BatchItem, max int) (*Batch, error) {
	if max > 0 && len(items) > max {
		return nil, fmt.Errorf("%w: %d selected, at most %d allowed", ErrTooManyItems, len(items), max)
	}

	b := &Batch{items: make([]models.BatchItem, len(items))}
	for i, item := range items {
		if item.DisplayName == "" {
			item.DisplayName = source.DisplayName(item.Source)
		}
		b.items[i] = item
	}
	return b, nil
}

// FromSources turns paths or URLs into batch items.
func FromSources(refs []string) []models.BatchItem {
	items := make([]models.BatchItem, 0, len(refs))
	for _, ref := range refs {
		items = append(items, models.BatchItem{Source: ref, DisplayName: source.DisplayName(ref)})
	}
	return items
}

// Len returns the number of items.
func (b *Batch) Len() int {
	return len(b.items)
}

// Items returns a copy of the items in order.
func (b *Batch) Items() []models.BatchItem {
	out := make([]models.BatchItem, len(b.items))
	copy(out, b.items)
	return out
}

// Index returns the cursor position.
func (b *Batch) Index() int {
	return b.index
}

// Current returns the item under the cursor.
func (b *Batch) Current() (models.BatchItem, bool) {
	if len(b.items) == 0 {
		return models.BatchItem{}, false
	}
	return b.items[b.index], true
}

// Next advances the cursor, wrapping to the first item.
func (b *Batch) Next() (models.BatchItem, bool) {
	return b.Seek(b.index + 1)
}

// Prev moves the cursor back, wrapping to the last item.
func (b *Batch) Prev() (models.BatchItem, bool) {
	return b.Seek(b.index - 1)
}

// Seek moves the cursor to i modulo Len.
func (b *Batch) Seek(i int) (models.BatchItem, bool) {
	n := len(b.items)
	if n == 0 {
		return models.BatchItem{}, false
	}
	b.index = ((i % n) + n) % n
	return b.items[b.index], true
}
