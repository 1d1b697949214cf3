package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pagination is a cursor page: at most Limit items after the item whose id
// is StartingAfter.
type Pagination struct {
	Limit         int    `json:"limit"`
	StartingAfter string `json:"starting_after,omitempty"`
}

// GetPagination reads limit and starting_after from the query string.
// Missing or invalid limits fall back to defaultLimit and are capped at
// maxLimit.
func GetPagination(c *fiber.Ctx, defaultLimit, maxLimit int) Pagination {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Pagination{
		Limit:         limit,
		StartingAfter: c.Query("starting_after"),
	}
}

// Paginate returns the page of items selected by p and whether more items
// follow it. An unknown cursor yields an empty page.
func Paginate[T any](items []T, p Pagination, id func(T) string) ([]T, bool) {
	start := 0
	if p.StartingAfter != "" {
		start = len(items)
		for i, item := range items {
			if id(item) == p.StartingAfter {
				start = i + 1
				break
			}
		}
	}

	end := start + p.Limit
	if end >= len(items) {
		return items[start:], false
	}
	return items[start:end], true
}
