package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want string
	}{
		{name: "canonical", tag: "TODO", want: "TODO"},
		{name: "hashtag", tag: "#TODO", want: "TODO"},
		{name: "page reference", tag: "[[Project Alpha]]", want: "Project Alpha"},
		{name: "hashtag reference", tag: "#[[Project Alpha]]", want: "Project Alpha"},
		{name: "missing closing brackets", tag: "[[Project", want: "Project"},
		{name: "missing opening brackets", tag: "Project]]", want: "Project"},
		{name: "single brackets", tag: "#[Project]", want: "Project"},
		{name: "case is preserved", tag: "#ToDo", want: "ToDo"},
		{name: "namespaced", tag: "[[Convention/Naming]]", want: "Convention/Naming"},
		{name: "empty", tag: "", want: ""},
		{name: "hash only", tag: "#", want: ""},
		{name: "repeated markers", tag: "##TODO", want: "TODO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.tag))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"T", "#T", "[[T]]", "#[[T]]", "[[T", "T]]", "##T", "[[[[T]]]]",
		"#[[#T]]", "", "#", "[[]]", "Project Alpha", "a]]b",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := Normalize(in)
			assert.Equal(t, once, Normalize(once))
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	got := NormalizeAll([]string{"#a", " [[b]] ", "#", "", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestContains(t *testing.T) {
	tests := []struct {
		name    string
		content string
		tag     string
		want    bool
	}{
		{name: "hashtag", content: "ship it #T today", tag: "T", want: true},
		{name: "page reference", content: "see [[T]] for details", tag: "T", want: true},
		{name: "hashtag reference", content: "filed under #[[T]]", tag: "T", want: true},
		{name: "absent", content: "no tag here", tag: "T", want: false},
		{name: "tag given in wrapped form", content: "see [[Project Alpha]]", tag: "#[[Project Alpha]]", want: true},
		{name: "prefix of a longer tag matches", content: "learning #Golang", tag: "Go", want: true},
		{name: "case sensitive", content: "#todo", tag: "TODO", want: false},
		{name: "bare word is not a tag", content: "TODO later", tag: "TODO", want: false},
		{name: "empty tag matches nothing", content: "#anything", tag: "#", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contains(tt.content, tt.tag))
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "no tags", content: "plain text", want: nil},
		{name: "hashtag", content: "buy milk #TODO", want: []string{"TODO"}},
		{name: "trailing punctuation", content: "done #DONE.", want: []string{"DONE"}},
		{name: "page reference", content: "met with [[Alice Smith]]", want: []string{"Alice Smith"}},
		{name: "hashtag reference", content: "#[[Project Alpha]] kickoff", want: []string{"Project Alpha"}},
		{name: "namespaced hashtag", content: "#Convention/Naming", want: []string{"Convention/Naming"}},
		{
			name:    "mixed and deduplicated",
			content: "#TODO call [[Bob]] about #[[Project Alpha]] #TODO [[Bob]]",
			want:    []string{"TODO", "Bob", "Project Alpha"},
		},
		{name: "nested reference", content: "[[[[Alpha]] notes]]", want: []string{"[[Alpha]] notes"}},
		{name: "unclosed reference", content: "[[open", want: nil},
		{name: "lone hash", content: "# heading", want: nil},
		{name: "unicode hashtag", content: "#café time", want: []string{"café"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.content))
		})
	}
}
