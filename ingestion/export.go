package ingestion

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"
)

// ExportPage is a page of a graph export.
type ExportPage struct {
	Title      string        `mapstructure:"title"`
	UID        string        `mapstructure:"uid"`
	CreateTime int64         `mapstructure:"create-time"`
	EditTime   int64         `mapstructure:"edit-time"`
	Children   []ExportBlock `mapstructure:"children"`
}

// ExportBlock is a block of a graph export. Unmodelled keys land in Extra.
type ExportBlock struct {
	String     string         `mapstructure:"string"`
	UID        string         `mapstructure:"uid"`
	CreateTime int64          `mapstructure:"create-time"`
	EditTime   int64          `mapstructure:"edit-time"`
	Children   []ExportBlock  `mapstructure:"children"`
	Extra      map[string]any `mapstructure:",remain"`
}

// Decode reads a JSON graph export.
func Decode(r io.Reader) ([]ExportPage, error) {
	var raw []any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExport, err)
	}

	var pages []ExportPage
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &pages,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExport, err)
	}
	return pages, nil
}

// CountBlocks returns the number of blocks under the page, at any depth.
func (p ExportPage) CountBlocks() int {
	return countBlocks(p.Children)
}

func countBlocks(blocks []ExportBlock) int {
	n := len(blocks)
	for _, b := range blocks {
		n += countBlocks(b.Children)
	}
	return n
}
