package domain

import "time"

// MaxBlogTitleLength bounds blog titles.
const MaxBlogTitleLength = 255

// Blog is a post written by a registered user.
type Blog struct {
	ID        int64
	Title     string
	Content   string
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Page describes a slice of a paginated listing.
type Page struct {
	Number  int
	PerPage int
	Total   int
}

// TotalPages returns the number of pages needed for Total items.
func (p Page) TotalPages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Offset returns the zero-based index of the first item on the page.
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.PerPage
}
