package paging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talk2dom/web/internal/paging"
)

func TestAll_WalksUntilLastPage(t *testing.T) {
	coll := newCollection(23)

	items, err := paging.All(context.Background(), coll.fetch, 10)

	require.NoError(t, err)
	assert.Equal(t, coll.items, items)
	assert.Equal(t, [][2]int{{10, 0}, {10, 10}, {10, 20}}, coll.calls)
}

func TestAll_StopsOnEmptyPageDespiteHasNext(t *testing.T) {
	calls := 0
	liar := func(_ context.Context, limit, offset int) (paging.Page[int], error) {
		calls++
		return paging.NewPage[int](nil, limit, offset, true), nil
	}

	items, err := paging.All(context.Background(), liar, 5)

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, calls)
}
