package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		count    int64
		expected int
		offset   int
	}{
		{"missing page", "", 15, 1, 0},
		{"first page", "1", 15, 1, 0},
		{"second page", "2", 15, 2, 10},
		{"beyond last", "99", 15, 2, 10},
		{"zero", "0", 15, 2, 10},
		{"negative", "-3", 15, 2, 10},
		{"not a number", "abc", 15, 1, 0},
		{"float", "1.5", 15, 1, 0},
		{"padded", " 2 ", 15, 2, 10},
		{"empty result", "5", 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(tt.raw, tt.count, PageSize)
			assert.Equal(t, tt.expected, p.Number)
			assert.Equal(t, tt.offset, p.Offset())
			assert.Equal(t, PageSize, p.Limit())
		})
	}
}

func TestResolve_Metadata(t *testing.T) {
	p := Resolve("2", 25, 10)
	assert.Equal(t, 3, p.NumPages)
	assert.Equal(t, []int{1, 2, 3}, p.PageRange)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)
	assert.Equal(t, 1, p.PrevNumber)
	assert.Equal(t, 3, p.NextNumber)
	assert.Equal(t, int64(11), p.StartIndex())
	assert.True(t, p.HasOtherPages())

	empty := Resolve("", 0, 10)
	assert.Equal(t, 1, empty.NumPages)
	assert.False(t, empty.HasOtherPages())
	assert.Equal(t, int64(0), empty.StartIndex())
	assert.Zero(t, empty.NextNumber)
}

func TestNumPages(t *testing.T) {
	assert.Equal(t, 1, NumPages(0, 10))
	assert.Equal(t, 1, NumPages(10, 10))
	assert.Equal(t, 2, NumPages(11, 10))
	assert.Equal(t, 2, NumPages(15, 0))
}
