package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "short content", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid1 := UIDFromContent(tt.content)
			uid2 := UIDFromContent(tt.content)

			if uid1 != uid2 {
				t.Errorf("UIDFromContent() produced different uids for same content: %s vs %s", uid1, uid2)
			}
			if len(uid1) != UIDLength {
				t.Errorf("UIDFromContent() length = %d, want %d", len(uid1), UIDLength)
			}
			for _, r := range string(uid1) {
				if !strings.ContainsRune(uidAlphabet, r) {
					t.Errorf("UIDFromContent() produced unexpected character %q", r)
				}
			}
		})
	}
}

func TestUIDFromContent_Different(t *testing.T) {
	uid1 := UIDFromContent("content1")
	uid2 := UIDFromContent("content2")

	if uid1 == uid2 {
		t.Errorf("UIDFromContent() produced same uid for different content")
	}
}

func TestSearchMatch_MarshalJSON(t *testing.T) {
	t.Run("without extensions", func(t *testing.T) {
		m := SearchMatch{BlockUID: "abc", Content: "hello"}
		data, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(data) != `{"block_uid":"abc","content":"hello"}` {
			t.Errorf("Marshal() = %s", data)
		}
	})

	t.Run("extensions are flattened", func(t *testing.T) {
		m := SearchMatch{
			BlockUID:   "abc",
			Content:    "hello",
			PageTitle:  "Inbox",
			Extensions: map[string]any{"heading": 2.0},
		}
		data, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if got["heading"] != 2.0 {
			t.Errorf("heading = %v, want 2", got["heading"])
		}
		if got["page_title"] != "Inbox" {
			t.Errorf("page_title = %v, want Inbox", got["page_title"])
		}
	})

	t.Run("typed fields win over extensions", func(t *testing.T) {
		m := SearchMatch{
			BlockUID:   "abc",
			Content:    "hello",
			Extensions: map[string]any{"content": "shadow"},
		}
		data, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if got["content"] != "hello" {
			t.Errorf("content = %v, want hello", got["content"])
		}
	})
}

func TestSearchResult_PageRefs(t *testing.T) {
	result := &SearchResult{
		Success: true,
		Matches: []SearchMatch{
			{BlockUID: "p1", Content: "Convention/Naming", PageTitle: "Convention/Naming"},
			{BlockUID: "p2", Content: "Convention/Layout"},
		},
	}

	refs := result.PageRefs()
	if len(refs) != 2 {
		t.Fatalf("PageRefs() returned %d refs, want 2", len(refs))
	}
	if refs[0] != (PageRef{PageUID: "p1", PageTitle: "Convention/Naming"}) {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].PageTitle != "Convention/Layout" {
		t.Errorf("refs[1].PageTitle = %q, want content fallback", refs[1].PageTitle)
	}
}

func TestUnixMilli(t *testing.T) {
	if got := UnixMilli(time.Time{}); got != 0 {
		t.Errorf("UnixMilli(zero) = %d, want 0", got)
	}

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ms := UnixMilli(ts)
	if !FromUnixMilli(ms).Equal(ts) {
		t.Errorf("FromUnixMilli(UnixMilli(t)) = %v, want %v", FromUnixMilli(ms), ts)
	}
	if !FromUnixMilli(0).IsZero() {
		t.Errorf("FromUnixMilli(0) should be the zero time")
	}
}
