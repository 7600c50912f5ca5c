package script

// ClampPage bounds a requested page to the range that still shows at least
// one item. A cursor past the end lands on the last non-empty page rather
// than an empty grid.
func ClampPage(page, itemCount, perPage int) int {
	if page < 0 {
		return 0
	}
	if itemCount <= 0 || perPage <= 0 {
		return 0
	}
	last := (itemCount - 1) / perPage
	if page > last {
		return last
	}
	return page
}
