package paging

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrBusy is returned when a page change is requested while a fetch is in flight.
	ErrBusy = errors.New("page fetch already in progress")

	// ErrNoPreviousPage is returned by Prev on the first page.
	ErrNoPreviousPage = errors.New("already on the first page")

	// ErrNoNextPage is returned by Next when the server reported no further page.
	ErrNoNextPage = errors.New("no next page")

	// ErrUnsupportedSize is returned by SetLimit for a size the view does not offer.
	ErrUnsupportedSize = errors.New("unsupported page size")
)

// Fetcher reads one page of a collection.
type Fetcher[T any] func(ctx context.Context, limit, offset int) (Page[T], error)

// Correct re-fetches the page at offset and, if it came back empty on a page
// other than the first, steps back exactly one page and fetches once more.
// It is the refresh that follows a delete.
func Correct[T any](ctx context.Context, fetch Fetcher[T], limit, offset int) (Page[T], error) {
	if err := CheckWindow(limit, offset); err != nil {
		return Page[T]{}, err
	}

	page, err := fetch(ctx, limit, offset)
	if err != nil {
		return Page[T]{}, err
	}
	if !page.Empty() || offset == 0 {
		return NewPage(page.Items, limit, offset, page.HasNext), nil
	}

	back := PreviousOffset(limit, offset)
	page, err = fetch(ctx, limit, back)
	if err != nil {
		return Page[T]{}, fmt.Errorf("stepping back to offset %d: %w", back, err)
	}
	return NewPage(page.Items, limit, back, page.HasNext), nil
}

// Pager holds the page state of one list and serializes its fetches: while
// one is in flight every other page change fails with ErrBusy instead of
// issuing a duplicate request. A failed fetch leaves the state untouched.
type Pager[T any] struct {
	fetch Fetcher[T]
	sizes []int

	mu      sync.Mutex
	limit   int
	offset  int
	items   []T
	hasNext bool
	loading bool
	loaded  bool
}

// Option configures a Pager.
type Option func(*pagerOptions)

type pagerOptions struct {
	sizes []int
}

// WithSizes restricts SetLimit to the given sizes.
func WithSizes(sizes ...int) Option {
	return func(o *pagerOptions) {
		o.sizes = sizes
	}
}

// NewPager creates a Pager positioned on the first page.
func NewPager[T any](fetch Fetcher[T], limit int, opts ...Option) *Pager[T] {
	o := &pagerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return &Pager[T]{
		fetch: fetch,
		sizes: o.sizes,
		limit: limit,
		items: []T{},
	}
}

// Load fetches the page at the current offset.
func (p *Pager[T]) Load(ctx context.Context) error {
	limit, offset, err := p.begin(nil)
	if err != nil {
		return err
	}
	page, err := p.fetchChecked(ctx, limit, offset)
	return p.end(page, err)
}

// Next moves one page forward.
func (p *Pager[T]) Next(ctx context.Context) error {
	limit, offset, err := p.begin(func() error {
		if !p.hasNext {
			return ErrNoNextPage
		}
		return nil
	})
	if err != nil {
		return err
	}
	page, err := p.fetchChecked(ctx, limit, offset+limit)
	return p.end(page, err)
}

// Prev moves one page back, never below offset zero.
func (p *Pager[T]) Prev(ctx context.Context) error {
	limit, offset, err := p.begin(func() error {
		if p.offset == 0 {
			return ErrNoPreviousPage
		}
		return nil
	})
	if err != nil {
		return err
	}
	page, err := p.fetchChecked(ctx, limit, PreviousOffset(limit, offset))
	return p.end(page, err)
}

// SetLimit changes the page size. The offset always returns to zero, even
// when the size is unchanged.
func (p *Pager[T]) SetLimit(ctx context.Context, limit int) error {
	if len(p.sizes) > 0 && !ValidSize(p.sizes, limit) {
		return fmt.Errorf("%w: %d", ErrUnsupportedSize, limit)
	}

	if _, _, err := p.begin(nil); err != nil {
		return err
	}
	page, err := p.fetchChecked(ctx, limit, 0)
	return p.end(page, err)
}

// Refresh re-fetches after a mutation, stepping back one page if the current
// one became empty.
func (p *Pager[T]) Refresh(ctx context.Context) error {
	limit, offset, err := p.begin(nil)
	if err != nil {
		return err
	}
	page, err := Correct(ctx, p.fetch, limit, offset)
	return p.end(page, err)
}

// View returns the renderable state of the list.
func (p *Pager[T]) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return View{
		Limit:   p.limit,
		Offset:  p.offset,
		Count:   len(p.items),
		HasNext: p.hasNext,
		Loading: p.loading,
		Loaded:  p.loaded,
	}
}

// Items returns a copy of the items on the current page.
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

// Page returns the current page.
func (p *Pager[T]) Page() Page[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]T, len(p.items))
	copy(items, p.items)
	return Page[T]{Items: items, Limit: p.limit, Offset: p.offset, HasNext: p.hasNext}
}

// begin claims the loading gate. guard runs under the lock and can veto the
// move based on the current state.
func (p *Pager[T]) begin(guard func() error) (limit, offset int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loading {
		return 0, 0, ErrBusy
	}
	if guard != nil {
		if err := guard(); err != nil {
			return 0, 0, err
		}
	}
	p.loading = true
	return p.limit, p.offset, nil
}

func (p *Pager[T]) end(page Page[T], err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		return err
	}
	page = NewPage(page.Items, page.Limit, page.Offset, page.HasNext)
	p.limit = page.Limit
	p.offset = page.Offset
	p.items = page.Items
	p.hasNext = page.HasNext
	p.loaded = true
	return nil
}

func (p *Pager[T]) fetchChecked(ctx context.Context, limit, offset int) (Page[T], error) {
	if err := CheckWindow(limit, offset); err != nil {
		return Page[T]{}, err
	}
	page, err := p.fetch(ctx, limit, offset)
	if err != nil {
		return Page[T]{}, err
	}
	return NewPage(page.Items, limit, offset, page.HasNext), nil
}
