package paging

import "fmt"

// View is what a list view renders: the window, how many items it holds, and
// whether the Previous/Next controls are live.
type View struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Count   int  `json:"count"`
	HasNext bool `json:"hasNext"`
	Loading bool `json:"loading"`
	Loaded  bool `json:"-"`
}

// ViewOf returns the view of a fetched page.
func ViewOf[T any](p Page[T]) View {
	return View{
		Limit:   p.Limit,
		Offset:  p.Offset,
		Count:   len(p.Items),
		HasNext: p.HasNext,
		Loaded:  true,
	}
}

// PrevEnabled reports whether the Previous control is live.
func (v View) PrevEnabled() bool {
	return v.Offset > 0 && !v.Loading
}

// NextEnabled reports whether the Next control is live.
func (v View) NextEnabled() bool {
	return v.HasNext && !v.Loading
}

// From is the 1-based position of the first item shown, or 0 when empty.
func (v View) From() int {
	if v.Count == 0 {
		return 0
	}
	return v.Offset + 1
}

// To is the 1-based position of the last item shown. The last page may be
// partial, so this counts items rather than adding the limit.
func (v View) To() int {
	if v.Count == 0 {
		return 0
	}
	return v.Offset + v.Count
}

// Range is the "showing X–Y" text, empty when the page has no items.
func (v View) Range() string {
	if v.Count == 0 {
		return ""
	}
	return fmt.Sprintf("%d–%d", v.From(), v.To())
}

// Empty reports the legitimate no-data state: a loaded first page with nothing on it.
func (v View) Empty() bool {
	return v.Loaded && !v.Loading && v.Count == 0 && v.Offset == 0
}
