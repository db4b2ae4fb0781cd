package paging

import "context"

// All walks a collection from offset zero in pages of batch items and
// returns every item. It stops on the first page the server reports as last.
func All[T any](ctx context.Context, fetch Fetcher[T], batch int) ([]T, error) {
	if err := CheckWindow(batch, 0); err != nil {
		return nil, err
	}

	out := []T{}
	for offset := 0; ; offset += batch {
		page, err := fetch(ctx, batch, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if !page.HasNext || page.Empty() {
			return out, nil
		}
	}
}
