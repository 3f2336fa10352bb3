package shared

import "math"

// Pagination describes one page of a limit/offset listing.
type Pagination struct {
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata for a listing response.
func NewPagination(limit, offset, total int) Pagination {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{Limit: limit, Offset: offset, Total: total, TotalPages: totalPages}
}
