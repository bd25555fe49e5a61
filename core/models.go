package core

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is the internal, sequence-assigned identifier of a stored page or block.
type ID uint64

// UID is the stable external identifier of a page or block.
type UID string

// uidAlphabet matches the character set used by the graph for block uids.
const uidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_"

// UIDLength is the length of generated uids.
const UIDLength = 9

// UIDFromContent derives a deterministic uid from text.
func UIDFromContent(text string) UID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := binary.LittleEndian.Uint64(h.Sum(nil))

	buf := make([]byte, UIDLength)
	for i := range buf {
		buf[i] = uidAlphabet[sum&63]
		sum >>= 6
	}
	return UID(buf)
}

type Page struct {
	Id        ID
	UID       UID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Block struct {
	Id        ID
	UID       UID
	PageId    ID
	ParentUID UID // Empty for top-level blocks
	Order     int
	Content   string
	Tags      []string          // Canonical tag names referenced by Content
	Props     map[string]string // Extra attributes carried over from the source graph
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SearchMatch is a single search hit.
// Content holds the block text, or the page title for namespace searches.
type SearchMatch struct {
	BlockUID  UID      `json:"block_uid"`
	Content   string   `json:"content"`
	PageTitle string   `json:"page_title,omitempty"`
	Created   int64    `json:"created,omitempty"`  // Unix milliseconds
	Modified  int64    `json:"modified,omitempty"` // Unix milliseconds
	Tags      []string `json:"tags,omitempty"`

	// Extensions carries context-specific fields outside the typed contract.
	Extensions map[string]any `json:"-"`
}

// MarshalJSON flattens Extensions next to the typed fields. Typed fields win on key collisions.
func (m SearchMatch) MarshalJSON() ([]byte, error) {
	type plain SearchMatch
	typed, err := json.Marshal(plain(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extensions) == 0 {
		return typed, nil
	}

	fields := make(map[string]any, len(m.Extensions)+6)
	for k, v := range m.Extensions {
		fields[k] = v
	}
	var base map[string]any
	if err := json.Unmarshal(typed, &base); err != nil {
		return nil, err
	}
	for k, v := range base {
		fields[k] = v
	}
	return json.Marshal(fields)
}

// PageRef is the page-level view of a namespace match.
type PageRef struct {
	PageUID   UID    `json:"page_uid"`
	PageTitle string `json:"page_title"`
}

// SearchResult is the outcome of one search invocation.
type SearchResult struct {
	Success    bool          `json:"success"`
	Matches    []SearchMatch `json:"matches"`
	Message    string        `json:"message"`
	TotalCount *int          `json:"total_count,omitempty"` // Count before limiting

	// Err classifies a failed result. It is nil on success.
	Err error `json:"-"`
}

// NewFailure builds an unsuccessful result.
func NewFailure(err error, message string) *SearchResult {
	return &SearchResult{
		Success: false,
		Matches: []SearchMatch{},
		Message: message,
		Err:     err,
	}
}

// PageRefs reshapes matches into page references.
func (r *SearchResult) PageRefs() []PageRef {
	refs := make([]PageRef, 0, len(r.Matches))
	for _, m := range r.Matches {
		title := m.PageTitle
		if title == "" {
			title = m.Content
		}
		refs = append(refs, PageRef{PageUID: m.BlockUID, PageTitle: title})
	}
	return refs
}

// UnixMilli converts t to milliseconds, keeping the zero time as 0.
func UnixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMilli is the inverse of UnixMilli.
func FromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
