package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		size      int
		requested int
		expected  Page
	}{
		{
			name: "first page of many", total: 25, size: 10, requested: 1,
			expected: Page{FirstIndex: 1, LastIndex: 10, CurrentPage: 1, NumPages: 3, HasMultiplePages: true},
		},
		{
			name: "partial last page", total: 25, size: 10, requested: 3,
			expected: Page{FirstIndex: 21, LastIndex: 25, CurrentPage: 3, NumPages: 3, HasMultiplePages: true},
		},
		{
			name: "page above range clamps to last", total: 25, size: 10, requested: 99,
			expected: Page{FirstIndex: 21, LastIndex: 25, CurrentPage: 3, NumPages: 3, HasMultiplePages: true},
		},
		{
			name: "page below range clamps to first", total: 25, size: 10, requested: -4,
			expected: Page{FirstIndex: 1, LastIndex: 10, CurrentPage: 1, NumPages: 3, HasMultiplePages: true},
		},
		{
			name: "exact fit is single page", total: 10, size: 10, requested: 2,
			expected: Page{FirstIndex: 1, LastIndex: 10, CurrentPage: 1, NumPages: 1, HasMultiplePages: false},
		},
		{
			name: "empty sequence", total: 0, size: 10, requested: 1,
			expected: Page{FirstIndex: 1, LastIndex: 0, CurrentPage: 1, NumPages: 1, HasMultiplePages: false},
		},
		{
			name: "non-positive page size treated as one", total: 3, size: 0, requested: 2,
			expected: Page{FirstIndex: 2, LastIndex: 2, CurrentPage: 2, NumPages: 3, HasMultiplePages: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Paginate(tt.total, tt.size, tt.requested))
		})
	}
}

func TestPageOffsetLimit(t *testing.T) {
	p := Paginate(25, 10, 3)
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 5, p.Limit())

	empty := Paginate(0, 10, 1)
	assert.Equal(t, 0, empty.Offset())
	assert.Equal(t, 0, empty.Limit())
}

func TestPageOf(t *testing.T) {
	assert.Equal(t, 1, PageOf(1, 10))
	assert.Equal(t, 1, PageOf(10, 10))
	assert.Equal(t, 2, PageOf(11, 10))
	assert.Equal(t, 1, PageOf(0, 10))
}
