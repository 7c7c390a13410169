package paginate

// Strategy is how a fetch collaborator should locate the requested window.
type Strategy int

const (
	// StrategyOffset skips Offset() items. Used for jumps between pages.
	StrategyOffset Strategy = iota
	// StrategyAfter reads forward from the After cursor.
	StrategyAfter
	// StrategyBefore reads backward from the Before cursor.
	StrategyBefore
	// StrategyLast resolves the final window directly.
	StrategyLast
)

func (s Strategy) String() string {
	switch s {
	case StrategyAfter:
		return "after"
	case StrategyBefore:
		return "before"
	case StrategyLast:
		return "last"
	default:
		return "offset"
	}
}

// Strategy picks the window strategy for the request.
//
// Precedence is last, then after, then before. A cursor only applies when the requested
// page is adjacent to the current one in the cursor's direction.
func (r Request) Strategy() Strategy {
	switch {
	case r.Last:
		return StrategyLast
	case r.After != "" && r.Page == r.CurrentPage+1:
		return StrategyAfter
	case r.Before != "" && r.Page == r.CurrentPage-1:
		return StrategyBefore
	default:
		return StrategyOffset
	}
}

// NumPages is the page count for total items at size per page.
func NumPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Window describes the page a collaborator should actually serve.
type Window struct {
	Strategy Strategy
	Page     int
	NumPages int
}

// Offset is the number of items preceding the window.
func (w Window) Offset(size int) int {
	return (w.Page - 1) * size
}

// HasBefore reports whether the window should carry a before cursor.
func (w Window) HasBefore() bool {
	return w.Page > 1
}

// HasAfter reports whether the window should carry an after cursor.
func (w Window) HasAfter() bool {
	return w.Page < w.NumPages
}

// Plan fits the request onto a collection of total items.
//
// Pages past the end are served as the last page, which also drops any cursor:
// a cursor only describes its neighbour page.
func (r Request) Plan(total int) Window {
	var (
		numPages = NumPages(total, r.PageSize)
		lastPage = max(numPages, 1)
		w        = Window{Strategy: r.Strategy(), Page: r.Page, NumPages: numPages}
	)

	switch {
	case w.Strategy == StrategyLast:
		w.Page = lastPage
	case w.Page > lastPage:
		w.Page = lastPage
		w.Strategy = StrategyOffset
	}

	return w
}
