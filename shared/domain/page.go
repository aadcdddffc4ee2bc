package domain

// Page is a window over an ordered sequence of items. Indexes are 1-based and
// inclusive; an empty sequence yields FirstIndex 1 and LastIndex 0.
type Page struct {
	FirstIndex       int
	LastIndex        int
	CurrentPage      int
	NumPages         int
	HasMultiplePages bool
}

// Offset and Limit translate the window for storage queries.
func (p Page) Offset() int { return p.FirstIndex - 1 }
func (p Page) Limit() int  { return max(0, p.LastIndex-p.FirstIndex+1) }

// Paginate clamps requestedPage to the existing pages and computes its window.
func Paginate(totalItems, pageSize, requestedPage int) Page {
	pageSize = max(1, pageSize)
	totalItems = max(0, totalItems)

	numPages := max(1, (totalItems+pageSize-1)/pageSize)
	current := min(max(1, requestedPage), numPages)

	first := (current-1)*pageSize + 1
	last := min(current*pageSize, totalItems)

	return Page{
		FirstIndex:       first,
		LastIndex:        last,
		CurrentPage:      current,
		NumPages:         numPages,
		HasMultiplePages: numPages > 1,
	}
}

// PageOf returns the page on which the item at 1-based index lies.
func PageOf(index, pageSize int) int {
	pageSize = max(1, pageSize)
	return max(1, (index+pageSize-1)/pageSize)
}
