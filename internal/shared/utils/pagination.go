package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"leadsync/internal/shared/constants"
	"leadsync/internal/shared/query"
)

// ParsePage reads page and per_page from the query string of a control request.
// Invalid or missing values fall back to defaults; per_page is capped.
func ParsePage(c *gin.Context) query.PageFilter {
	return query.PageFilter{
		Page:    queryInt(c, "page", constants.DefaultPage),
		PerPage: queryInt(c, "per_page", constants.DefaultPageSize),
	}.Normalize()
}

func queryInt(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 1 {
			return n
		}
	}
	return defaultVal
}

// ApplyPagination calculates slice indices for pagination.
// Returns (start, end) indices for slicing: slice[start:end]
func ApplyPagination(total, page, perPage int) (start, end int) {
	if page < 1 {
		page = 1
	}
	start = (page - 1) * perPage
	end = start + perPage

	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return start, end
}

// TotalPages calculates total pages for a given total count. An empty result
// still has one page.
func TotalPages(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
