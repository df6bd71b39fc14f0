package command

// Paging helpers shared by the search-and-browse commands. Pages are
// 1-based.

func totalPages(total, size int) int {
	return (total + size - 1) / size
}

func clampPage(page, total, size int) int {
	if last := totalPages(total, size); page > last {
		page = last
	}

	if page < 1 {
		page = 1
	}

	return page
}

func pageBounds(total, page, size int) (int, int) {
	start := (page - 1) * size
	if start > total {
		start = total
	}

	end := start + size
	if end > total {
		end = total
	}

	return start, end
}
