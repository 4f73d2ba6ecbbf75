package query

import "leadsync/internal/shared/constants"

// PageFilter is the page/perPage pair sent with paginated ticket queries.
type PageFilter struct {
	Page    int
	PerPage int
}

// Normalize applies defaults and caps the page size.
func (f PageFilter) Normalize() PageFilter {
	if f.Page < 1 {
		f.Page = constants.DefaultPage
	}
	if f.PerPage < 1 {
		f.PerPage = constants.DefaultPageSize
	}
	if f.PerPage > constants.MaxPageSize {
		f.PerPage = constants.MaxPageSize
	}
	return f
}

// Next returns the filter for the following page.
func (f PageFilter) Next() PageFilter {
	f.Page++
	return f
}

// HasMore reports whether pages remain after the current one.
func (f PageFilter) HasMore(totalPages int) bool {
	return f.Page < totalPages
}

type SortFilter struct {
	SortBy string
	Order  string
}

func (f SortFilter) IsDescending() bool {
	return f.Order == "desc" || f.Order == "DESC"
}

// Direction returns the lower-case order keyword expected by the ticket API.
func (f SortFilter) Direction() string {
	if f.IsDescending() {
		return "desc"
	}
	return "asc"
}

type BaseFilter struct {
	PageFilter
	SortFilter
}

type FilterOption func(*BaseFilter)

func WithPage(page, perPage int) FilterOption {
	return func(f *BaseFilter) {
		f.Page = page
		f.PerPage = perPage
	}
}

func WithSort(sortBy, order string) FilterOption {
	return func(f *BaseFilter) {
		f.SortBy = sortBy
		f.Order = order
	}
}

func NewBaseFilter(opts ...FilterOption) BaseFilter {
	f := BaseFilter{
		PageFilter: PageFilter{
			Page:    constants.DefaultPage,
			PerPage: constants.DefaultPageSize,
		},
		SortFilter: SortFilter{
			Order: "desc",
		},
	}
	for _, opt := range opts {
		opt(&f)
	}
	f.PageFilter = f.PageFilter.Normalize()
	return f
}
