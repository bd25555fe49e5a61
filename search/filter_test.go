package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagFilter_AndOr(t *testing.T) {
	// M1 has only A, M2 has both, M3 has neither
	matches := matchesOf("M1 #A", "M2 #A [[B]]", "M3 plain")

	t.Run("AND keeps matches with every tag", func(t *testing.T) {
		f := TagFilter{Required: []string{"A", "B"}, Logic: LogicAnd}
		assert.Equal(t, []string{"M2 #A [[B]]"}, contentsOf(f.Apply(matches)))
	})

	t.Run("OR keeps matches with any tag", func(t *testing.T) {
		f := TagFilter{Required: []string{"A", "B"}, Logic: LogicOr}
		assert.Equal(t, []string{"M1 #A", "M2 #A [[B]]"}, contentsOf(f.Apply(matches)))
	})

	t.Run("zero value logic is AND", func(t *testing.T) {
		f := TagFilter{Required: []string{"A", "B"}}
		assert.Equal(t, []string{"M2 #A [[B]]"}, contentsOf(f.Apply(matches)))
	})
}

func TestTagFilter_ExclusionIsUnconditional(t *testing.T) {
	matches := matchesOf("keep #A", "drop #A #done", "drop #B #[[done]]", "neither")

	tests := []struct {
		name   string
		filter TagFilter
		want   []string
	}{
		{
			name:   "AND inclusion then exclusion",
			filter: TagFilter{Required: []string{"A"}, Excluded: []string{"done"}},
			want:   []string{"keep #A"},
		},
		{
			name:   "OR inclusion then exclusion",
			filter: TagFilter{Required: []string{"A", "B"}, Logic: LogicOr, Excluded: []string{"done"}},
			want:   []string{"keep #A"},
		},
		{
			name:   "exclusion without inclusion",
			filter: TagFilter{Excluded: []string{"done"}},
			want:   []string{"keep #A", "neither"},
		},
		{
			name:   "any excluded tag drops the match",
			filter: TagFilter{Excluded: []string{"missing", "B"}},
			want:   []string{"keep #A", "drop #A #done", "neither"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentsOf(tt.filter.Apply(matches)))
		})
	}
}

func TestTagFilter_Empty(t *testing.T) {
	matches := matchesOf("a", "b")
	f := TagFilter{}
	assert.True(t, f.IsEmpty())
	assert.Equal(t, matches, f.Apply(matches))
}

func TestLogic_String(t *testing.T) {
	assert.Equal(t, "AND", LogicAnd.String())
	assert.Equal(t, "OR", LogicOr.String())
}

func TestMatchText(t *testing.T) {
	matches := matchesOf("Meeting Notes", "meeting agenda", "lunch")
	assert.Equal(t, []string{"Meeting Notes"}, contentsOf(MatchText(matches, "MEETING notes")))
	assert.Empty(t, MatchText(matches, "dinner"))
}
