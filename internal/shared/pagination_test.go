package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(50, 100, 230)
	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, 100, p.Offset)
	assert.Equal(t, 230, p.Total)
	assert.Equal(t, 5, p.TotalPages)
}

func TestNewPaginationDefaultsBadInputs(t *testing.T) {
	p := NewPagination(0, -10, 10)
	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, 1, p.TotalPages)

	empty := NewPagination(20, 0, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
