package search

import (
	"context"
	"testing"

	"github.com/poiesic/graphsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearcher(t *testing.T, exec *fakeExecutor) *Searcher {
	t.Helper()
	s, err := NewSearcher(exec)
	require.NoError(t, err)
	return s
}

func TestNewSearcher(t *testing.T) {
	_, err := NewSearcher(nil)
	assert.ErrorIs(t, err, ErrExecutorRequired)

	s, err := NewSearcher(&fakeExecutor{}, WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, s.logger)
}

func TestSearch_Namespace(t *testing.T) {
	exec := &fakeExecutor{
		pages: []core.SearchMatch{
			{BlockUID: "p1", Content: "Convention/Naming", PageTitle: "Convention/Naming"},
			{BlockUID: "p2", Content: "Convention/Layout", PageTitle: "Convention/Layout"},
			{BlockUID: "p3", Content: "Conventional wisdom", PageTitle: "Conventional wisdom"},
		},
	}
	s := newTestSearcher(t, exec)

	bare := s.Search(context.Background(), Request{Namespace: "Convention"})
	slashed := s.Search(context.Background(), Request{Namespace: "Convention/"})

	require.True(t, bare.Success)
	assert.Equal(t, bare.Matches, slashed.Matches)
	assert.Equal(t, []string{"Convention/Naming", "Convention/Layout"}, contentsOf(bare.Matches))

	require.Len(t, exec.textCalls, 2)
	for _, c := range exec.textCalls {
		assert.Equal(t, "Convention/", c.text)
		assert.Equal(t, ScopePageTitles, c.scope)
	}

	refs := bare.PageRefs()
	assert.Equal(t, core.PageRef{PageUID: "p1", PageTitle: "Convention/Naming"}, refs[0])
}

func TestSearch_RejectedBeforeExecutor(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name:    "no criteria",
			req:     Request{},
			wantErr: ErrNoCriteria,
		},
		{
			name:    "invalid inputs",
			req:     Request{Query: "[:find ?e :in $ ?x]", Inputs: "not json"},
			wantErr: ErrInvalidInputFormat,
		},
		{
			name:    "invalid regex",
			req:     Request{Query: "[:find ?e]", Regex: "[unclosed"},
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "unknown regex flag",
			req:     Request{Query: "[:find ?e]", Regex: "a", RegexFlags: "x"},
			wantErr: ErrInvalidPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			s := newTestSearcher(t, exec)

			res := s.Search(context.Background(), tt.req)

			assert.False(t, res.Success)
			assert.ErrorIs(t, res.Err, tt.wantErr)
			assert.NotEmpty(t, res.Message)
			assert.Empty(t, res.Matches)
			assert.Equal(t, 0, exec.calls())
		})
	}
}

func TestSearch_ExecutorFailure(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		exec := &fakeExecutor{err: errBoom}
		res := newTestSearcher(t, exec).Search(context.Background(), Request{Terms: []string{"x"}})

		assert.False(t, res.Success)
		assert.Equal(t, "boom", res.Message)
		assert.ErrorIs(t, res.Err, ErrQueryFailed)
		assert.ErrorIs(t, res.Err, errBoom)
	})

	t.Run("unsuccessful result", func(t *testing.T) {
		exec := &fakeExecutor{failed: "Query timed out after 20s"}
		res := newTestSearcher(t, exec).Search(context.Background(), Request{Tags: []string{"TODO"}})

		assert.False(t, res.Success)
		assert.Equal(t, "Query timed out after 20s", res.Message)
		assert.ErrorIs(t, res.Err, ErrQueryFailed)
		assert.Empty(t, res.Matches)
	})

	t.Run("cancelled context", func(t *testing.T) {
		exec := &fakeExecutor{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := newTestSearcher(t, exec).Search(ctx, Request{Terms: []string{"x"}})

		assert.False(t, res.Success)
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.Equal(t, 0, exec.calls())
	})
}

func TestSearch_EmptyResultIsSuccess(t *testing.T) {
	exec := &fakeExecutor{blocks: matchesOf("nothing relevant")}
	res := newTestSearcher(t, exec).Search(context.Background(), Request{Terms: []string{"absent"}})

	assert.True(t, res.Success)
	assert.Empty(t, res.Matches)
	assert.Empty(t, res.Message)
	require.NotNil(t, res.TotalCount)
	assert.Equal(t, 0, *res.TotalCount)
}

func TestSearch_Text(t *testing.T) {
	exec := &fakeExecutor{
		blocks: matchesOf(
			"API integration plan #project",
			"api integration retro #project #archived",
			"api integration notes",
			"Unrelated #project",
		),
	}
	s := newTestSearcher(t, exec)

	res := s.Search(context.Background(), Request{
		Terms:           []string{"api", "integration"},
		Tags:            []string{"#project"},
		ExcludedTags:    []string{"archived"},
		CaseInsensitive: true,
		PageScope:       "Work",
	})

	require.True(t, res.Success)
	assert.Equal(t, []string{"API integration plan #project"}, contentsOf(res.Matches))
	require.Len(t, exec.textCalls, 1)
	assert.Equal(t, textCall{text: "api integration", pageScope: "Work", scope: ScopeBlocks}, exec.textCalls[0])
}

func TestSearch_Tag(t *testing.T) {
	exec := &fakeExecutor{
		blocks: matchesOf(
			"#TODO write docs #urgent",
			"#TODO refactor",
			"#TODO ship it #urgent #[[done]]",
		),
	}
	s := newTestSearcher(t, exec)

	t.Run("single tag", func(t *testing.T) {
		res := s.Search(context.Background(), Request{Tags: []string{"[[TODO]]"}, ExcludedTags: []string{"done"}})

		require.True(t, res.Success)
		assert.Equal(t, []string{"#TODO write docs #urgent", "#TODO refactor"}, contentsOf(res.Matches))
		assert.Equal(t, "TODO", exec.tagCalls[len(exec.tagCalls)-1].tag)
	})

	t.Run("all tags", func(t *testing.T) {
		res := s.Search(context.Background(), Request{Tags: []string{"TODO", "urgent"}})

		require.True(t, res.Success)
		assert.Equal(t, []string{"#TODO write docs #urgent", "#TODO ship it #urgent #[[done]]"}, contentsOf(res.Matches))
		assert.Equal(t, "TODO", exec.tagCalls[len(exec.tagCalls)-1].tag)
	})
}

func TestSearch_DeclarativeRegex(t *testing.T) {
	exec := &fakeExecutor{
		rows: matchesOf(`["Weekly Meeting notes"]`, `["Lunch"]`, `["meeting prep"]`),
	}
	s := newTestSearcher(t, exec)

	res := s.Search(context.Background(), Request{
		Query:      "[:find ?s :in $ ?t :where [?b :block/string ?s]]",
		Inputs:     `["Inbox"]`,
		Regex:      "meeting",
		RegexFlags: "i",
	})

	require.True(t, res.Success)
	assert.Equal(t, []string{`["Weekly Meeting notes"]`, `["meeting prep"]`}, contentsOf(res.Matches))
	require.Len(t, exec.declarativeCalls, 1)
	assert.Equal(t, []any{"Inbox"}, exec.declarativeCalls[0].inputs)
}

func TestSearch_Limit(t *testing.T) {
	contents := make([]string, 35)
	for i := range contents {
		contents[i] = "note " + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	exec := &fakeExecutor{blocks: matchesOf(contents...)}

	res := newTestSearcher(t, exec).Search(context.Background(), Request{Terms: []string{"note"}})

	require.True(t, res.Success)
	assert.Len(t, res.Matches, DefaultLimit)
	require.NotNil(t, res.TotalCount)
	assert.Equal(t, 35, *res.TotalCount)
	assert.Equal(t, "showing first 20 of 35 matches", res.Message)
}

type recordingMonitor struct {
	stages []string
	mode   Mode
	result *core.SearchResult
}

func (r *recordingMonitor) Start(mode Mode) {
	r.mode = mode
	r.stages = append(r.stages, "start")
}

func (r *recordingMonitor) AfterExecutorCall(_ []core.SearchMatch) {
	r.stages = append(r.stages, "executor")
}

func (r *recordingMonitor) AfterTextFilter(_ []core.SearchMatch) {
	r.stages = append(r.stages, "text")
}

func (r *recordingMonitor) AfterTagFilter(_ []core.SearchMatch) {
	r.stages = append(r.stages, "tag")
}

func (r *recordingMonitor) AfterRegexFilter(_ []core.SearchMatch) {
	r.stages = append(r.stages, "regex")
}

func (r *recordingMonitor) Finish(result *core.SearchResult) {
	r.result = result
	r.stages = append(r.stages, "finish")
}

func TestSearchWithMonitor(t *testing.T) {
	tests := []struct {
		name   string
		req    Request
		stages []string
	}{
		{
			name:   "text",
			req:    Request{Terms: []string{"a"}, CaseInsensitive: true},
			stages: []string{"start", "executor", "text", "tag", "finish"},
		},
		{
			name:   "tag",
			req:    Request{Tags: []string{"a"}},
			stages: []string{"start", "executor", "tag", "finish"},
		},
		{
			name:   "declarative with regex",
			req:    Request{Query: "[:find ?e]", Regex: "a"},
			stages: []string{"start", "executor", "regex", "finish"},
		},
		{
			name:   "namespace",
			req:    Request{Namespace: "a"},
			stages: []string{"start", "executor", "finish"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := &recordingMonitor{}
			s := newTestSearcher(t, &fakeExecutor{})

			res := s.SearchWithMonitor(context.Background(), tt.req, monitor)

			assert.True(t, res.Success)
			assert.Equal(t, tt.stages, monitor.stages)
			assert.NotNil(t, monitor.mode)
			assert.Same(t, res, monitor.result)
		})
	}
}

func TestRun_NilMode(t *testing.T) {
	res := newTestSearcher(t, &fakeExecutor{}).Run(context.Background(), nil, 0)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNoCriteria)
}
