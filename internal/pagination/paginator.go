// Package pagination splits counted result sets into fixed-size pages.
package pagination

import (
	"strconv"
	"strings"
)

// PageSize is the number of posts on every feed page.
const PageSize = 10

// Page describes one page of a result set. Items are held by the caller.
type Page struct {
	Number     int
	Count      int64
	NumPages   int
	PerPage    int
	PageRange  []int
	HasPrev    bool
	HasNext    bool
	PrevNumber int
	NextNumber int
}

// Offset is the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit is the row limit for this page.
func (p Page) Limit() int {
	return p.PerPage
}

// HasOtherPages reports whether navigation should be rendered.
func (p Page) HasOtherPages() bool {
	return p.HasPrev || p.HasNext
}

// StartIndex is the 1-based index of the first item, 0 for an empty page.
func (p Page) StartIndex() int64 {
	if p.Count == 0 {
		return 0
	}
	return int64(p.Offset()) + 1
}

// NumPages returns the page count for count items, never less than one.
func NumPages(count int64, perPage int) int {
	if perPage <= 0 {
		perPage = PageSize
	}
	if count <= 0 {
		return 1
	}
	return int((count + int64(perPage) - 1) / int64(perPage))
}

// Resolve clamps a raw page number from the query string.
// Missing or non-integer input gives page 1; out-of-range input gives the last page.
func Resolve(raw string, count int64, perPage int) Page {
	if perPage <= 0 {
		perPage = PageSize
	}
	numPages := NumPages(count, perPage)

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}

	p := Page{
		Number:   number,
		Count:    count,
		NumPages: numPages,
		PerPage:  perPage,
		HasPrev:  number > 1,
		HasNext:  number < numPages,
	}
	if p.HasPrev {
		p.PrevNumber = number - 1
	}
	if p.HasNext {
		p.NextNumber = number + 1
	}
	p.PageRange = make([]int, numPages)
	for i := range p.PageRange {
		p.PageRange[i] = i + 1
	}
	return p
}
