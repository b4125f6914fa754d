// Package pagination parses the page descriptor consumed by the update feed.
// The wire encoding (page/per_page query parameters) is an adapter concern;
// the rest of the code only sees Limit and Offset.
package pagination

import "strconv"

const (
	// DefaultPerPage is the page size when the client does not specify one.
	DefaultPerPage = 20

	// MaxPerPage caps client-requested page sizes.
	MaxPerPage = 100
)

// Page is a decoded page descriptor.
type Page struct {
	Number  int
	PerPage int
}

// Limit returns the row limit for the page.
func (p Page) Limit() int { return p.PerPage }

// Offset returns the row offset for the page.
func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }

// FromQuery decodes page/per_page strings, clamping out-of-range values to
// the defaults rather than erroring: a garbled page descriptor yields the
// first page, never a failure.
func FromQuery(pageStr, perPageStr string) Page {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	perPage, err := strconv.Atoi(perPageStr)
	if err != nil || perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}

	return Page{Number: page, PerPage: perPage}
}
