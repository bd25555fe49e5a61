package storage

import (
	"testing"
	"time"

	"github.com/poiesic/graphsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalPage(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		page *core.Page
	}{
		{
			name: "full page",
			page: &core.Page{Id: 7, UID: "abc123XYZ", Title: "Convention/Naming", CreatedAt: now, UpdatedAt: now.Add(time.Hour)},
		},
		{
			name: "zero timestamps",
			page: &core.Page{Id: 1, UID: "p1", Title: "Inbox"},
		},
		{
			name: "unicode title",
			page: &core.Page{Id: 2, UID: "p2", Title: "Café ☕ notes", CreatedAt: now, UpdatedAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := UnmarshalPage(MarshalPage(tt.page))
			require.NoError(t, err)
			assert.Equal(t, tt.page, decoded)
		})
	}
}

func TestMarshalUnmarshalBlock(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		block *core.Block
	}{
		{
			name: "minimal block",
			block: &core.Block{
				Id:      3,
				UID:     "b1",
				PageId:  1,
				Content: "plain text",
			},
		},
		{
			name: "block with tags and props",
			block: &core.Block{
				Id:        4,
				UID:       "b2",
				PageId:    1,
				ParentUID: "b1",
				Order:     2,
				Content:   "ship it #TODO [[Project X]]",
				Tags:      []string{"TODO", "Project X"},
				Props:     map[string]string{"heading": "2", "text-align": "center"},
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		{
			name: "negative order",
			block: &core.Block{Id: 5, UID: "b3", PageId: 2, Order: -1, Content: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := UnmarshalBlock(MarshalBlock(tt.block))
			require.NoError(t, err)
			assert.Equal(t, tt.block, decoded)
		})
	}
}

func TestRecordSerializers_Skip(t *testing.T) {
	page := core.Page{Id: 9, UID: "p9", Title: "Inbox", CreatedAt: time.Unix(1700000000, 0).UTC()}
	block := core.Block{
		Id:      10,
		UID:     "b10",
		PageId:  9,
		Content: "ship it #release",
		Tags:    []string{"release"},
		Props:   map[string]string{"heading": "1"},
	}

	pageBytes := make([]byte, PageMUS.Size(page))
	PageMUS.Marshal(page, pageBytes)
	n, err := PageMUS.Skip(pageBytes)
	require.NoError(t, err)
	assert.Equal(t, len(pageBytes), n)

	blockBytes := make([]byte, BlockMUS.Size(block))
	BlockMUS.Marshal(block, blockBytes)
	n, err = BlockMUS.Skip(blockBytes)
	require.NoError(t, err)
	assert.Equal(t, len(blockBytes), n)
}

func TestUnmarshal_Invalid(t *testing.T) {
	page := MarshalPage(&core.Page{Id: 1, UID: "p", Title: "Inbox"})
	block := MarshalBlock(&core.Block{Id: 1, UID: "b", Content: "text", Tags: []string{"a"}})

	tests := []struct {
		name   string
		decode func() error
	}{
		{"empty page", func() error { _, err := UnmarshalPage(nil); return err }},
		{"truncated page", func() error { _, err := UnmarshalPage(page[:len(page)-3]); return err }},
		{"trailing page bytes", func() error { _, err := UnmarshalPage(append(page, 0)); return err }},
		{"page as block", func() error { _, err := UnmarshalBlock(page); return err }},
		{"truncated block", func() error { _, err := UnmarshalBlock(block[:len(block)-4]); return err }},
		{"unknown version", func() error { _, err := UnmarshalBlock(append([]byte{9}, block[1:]...)); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.decode(), ErrSerializationFailed)
		})
	}
}
