package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	tests := []struct {
		name       string
		in         PageRequest
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{name: "empty", in: PageRequest{}, wantPage: 1, wantSize: DefaultPageSize, wantOffset: 0},
		{name: "page and size", in: PageRequest{Page: 3, PageSize: 10}, wantPage: 3, wantSize: 10, wantOffset: 20},
		{name: "skip and limit", in: PageRequest{Skip: 25, Limit: 10}, wantPage: 3, wantSize: 10, wantOffset: 25},
		{name: "limit alone", in: PageRequest{Limit: 5}, wantPage: 1, wantSize: 5, wantOffset: 0},
		{name: "page size wins over limit", in: PageRequest{PageSize: 20, Limit: 5}, wantPage: 1, wantSize: 20, wantOffset: 0},
		{name: "oversized clamps", in: PageRequest{PageSize: 1000}, wantPage: 1, wantSize: MaxPageSize, wantOffset: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Defaults()
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	r := NewPageResponse[int](nil, 1, 10, 21)
	assert.Equal(t, 3, r.TotalPages)
	assert.NotNil(t, r.Data)
	assert.Empty(t, r.Data)

	r = NewPageResponse([]int{1, 2}, 1, 10, 0)
	assert.Equal(t, 0, r.TotalPages)
}
