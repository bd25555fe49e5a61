package search

import (
	"fmt"
	"testing"

	"github.com/poiesic/graphsearch/core"
	"github.com/stretchr/testify/assert"
)

func numberedMatches(n int) []core.SearchMatch {
	contents := make([]string, n)
	for i := range contents {
		contents[i] = fmt.Sprintf("block %d", i)
	}
	return matchesOf(contents...)
}

func TestLimit(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		limit     int
		wantShown int
	}{
		{name: "truncates and keeps total", count: 35, limit: 20, wantShown: 20},
		{name: "fewer than limit", count: 5, limit: 20, wantShown: 5},
		{name: "exactly limit", count: 20, limit: 20, wantShown: 20},
		{name: "limit of one", count: 3, limit: 1, wantShown: 1},
		{name: "zero selects default", count: 35, limit: 0, wantShown: DefaultLimit},
		{name: "negative selects default", count: 35, limit: -4, wantShown: DefaultLimit},
		{name: "empty input", count: 0, limit: 20, wantShown: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := numberedMatches(tt.count)
			shown, total := Limit(matches, tt.limit)
			assert.Len(t, shown, tt.wantShown)
			assert.Equal(t, tt.count, total)
			if tt.wantShown > 0 {
				assert.Equal(t, matches[0], shown[0])
			}
		})
	}
}
