package util

import "strconv"

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page is an offset window over a list. A zero Limit means unbounded.
type Page struct {
	Offset int
	Limit  int
}

func Calculate(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return Page{Offset: (page - 1) * size, Limit: size}
}

// FromQuery builds a Page from raw ?page=&size= values. Without a page
// parameter the whole list is returned.
func FromQuery(page, size string) Page {
	if page == "" {
		return Page{}
	}
	p, _ := strconv.Atoi(page)
	s, _ := strconv.Atoi(size)
	return Calculate(p, s)
}
