package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/talk2dom/web/internal/paging"
)

const maxCell = 48

// table renders one list view. Rows are numbered from 1 within the page so
// that `d <index>` in the browser can refer to them.
type table[T any] struct {
	noun    string
	headers []string
	row     func(T) []string
}

func (t table[T]) write(w io.Writer, items []T, v paging.View) error {
	if v.Empty() {
		_, err := fmt.Fprintf(w, "No %s yet.\n", t.noun)
		return err
	}
	if len(items) == 0 {
		_, err := fmt.Fprintf(w, "No %s on this page.\n", t.noun)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\t%s\n", strings.Join(t.headers, "\t"))
	for i, item := range items {
		cells := t.row(item)
		for j := range cells {
			cells[j] = truncate(cells[j])
		}
		fmt.Fprintf(tw, "%d\t%s\n", i+1, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %s\n", v.Range())
	return err
}

// writePage renders a fetched page followed by the flags that reach its
// neighbours.
func (t table[T]) writePage(w io.Writer, page paging.Page[T]) error {
	v := paging.ViewOf(page)
	if err := t.write(w, page.Items, v); err != nil {
		return err
	}
	if v.PrevEnabled() {
		fmt.Fprintf(w, "Previous page: --offset %d\n", paging.PreviousOffset(v.Limit, v.Offset))
	}
	if v.NextEnabled() {
		fmt.Fprintf(w, "Next page: --offset %d\n", v.Offset+v.Limit)
	}
	return nil
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxCell {
		return s
	}
	r := []rune(s)
	return string(r[:maxCell-1]) + "…"
}

// window is the --limit/--offset pair of a list command.
type window struct {
	limit  int
	offset int
	sizes  []int
}

func addWindowFlags(cmd *cobra.Command, w *window, sizes []int, def int) {
	w.sizes = sizes
	cmd.Flags().IntVar(&w.limit, "limit", def, fmt.Sprintf("page size, one of %v", sizes))
	cmd.Flags().IntVar(&w.offset, "offset", 0, "number of items to skip")
}

func (w window) check() error {
	if !paging.ValidSize(w.sizes, w.limit) {
		return fmt.Errorf("--limit must be one of %v", w.sizes)
	}
	return paging.CheckWindow(w.limit, w.offset)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
