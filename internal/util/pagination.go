package util

import "strconv"

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Calculate turns a 1-based page and a page size into offset and limit.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	offset = (page - 1) * size
	return offset, size
}

// Atoi parses a query value, falling back to def when it is empty or malformed.
func Atoi(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
