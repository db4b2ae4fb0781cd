package paging

import "slices"

// Page sizes offered by list views. Tables offer a choice; the project grid
// is fixed at nine cards.
var (
	TableSizes = []int{5, 10, 20}
	GridSizes  = []int{9}

	// ProjectSizes accepts the grid size plus the table sizes for callers
	// that list projects as rows.
	ProjectSizes = append(slices.Clone(GridSizes), TableSizes...)
)

const (
	DefaultTableSize = 10
	DefaultGridSize  = 9
)

// ValidSize reports whether n is one of the offered sizes.
func ValidSize(sizes []int, n int) bool {
	return slices.Contains(sizes, n)
}
