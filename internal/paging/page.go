// Package paging implements offset/limit pagination over remote collections:
// the page value returned by a fetch, a stateful pager with a loading gate and
// post-delete self-correction, and the view state a list renders from.
package paging

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when a limit/offset pair cannot address a page.
var ErrInvalidWindow = errors.New("invalid page window")

// Page is one window of an ordered remote collection. Items keep server order.
// HasNext comes from the server and is never derived from len(Items).
type Page[T any] struct {
	Items   []T  `json:"items"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasNext bool `json:"has_next"`
}

// NewPage builds a page and enforces len(Items) <= limit by truncation.
func NewPage[T any](items []T, limit, offset int, hasNext bool) Page[T] {
	if items == nil {
		items = []T{}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return Page[T]{Items: items, Limit: limit, Offset: offset, HasNext: hasNext}
}

// EmptyPage is the page a read path degrades to when the response is unusable.
func EmptyPage[T any](limit, offset int) Page[T] {
	return NewPage[T](nil, limit, offset, false)
}

// Len returns the number of items on the page.
func (p Page[T]) Len() int { return len(p.Items) }

// Empty reports whether the page has no items.
func (p Page[T]) Empty() bool { return len(p.Items) == 0 }

// CheckWindow validates a limit/offset pair before any request is made.
func CheckWindow(limit, offset int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidWindow, limit)
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidWindow, offset)
	}
	return nil
}

// PreviousOffset is the offset one page back, clamped at zero.
func PreviousOffset(limit, offset int) int {
	return max(offset-limit, 0)
}
