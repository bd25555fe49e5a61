// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/graphsearch/core"
)

// Record format versions. A record starts with its version.
const (
	pageFormatVersion  = 1
	blockFormatVersion = 1
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, IDMUS.Size(id))
	IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalPage serializes a Page to bytes.
func MarshalPage(page *core.Page) []byte {
	return marshalVersioned(pageFormatVersion, PageMUS, *page)
}

// UnmarshalPage deserializes a Page from bytes.
func UnmarshalPage(data []byte) (*core.Page, error) {
	page, err := unmarshalVersioned(pageFormatVersion, PageMUS, data)
	if err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}
	return &page, nil
}

// MarshalBlock serializes a Block to bytes.
func MarshalBlock(block *core.Block) []byte {
	return marshalVersioned(blockFormatVersion, BlockMUS, *block)
}

// UnmarshalBlock deserializes a Block from bytes.
func UnmarshalBlock(data []byte) (*core.Block, error) {
	block, err := unmarshalVersioned(blockFormatVersion, BlockMUS, data)
	if err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}
	return &block, nil
}

func marshalVersioned[T any](version uint64, ser mus.Serializer[T], v T) []byte {
	buf := make([]byte, varint.Uint64.Size(version)+ser.Size(v))
	n := varint.Uint64.Marshal(version, buf)
	ser.Marshal(v, buf[n:])
	return buf
}

func unmarshalVersioned[T any](version uint64, ser mus.Serializer[T], data []byte) (v T, err error) {
	got, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if got != version {
		return v, fmt.Errorf("%w: unknown format %d", ErrSerializationFailed, got)
	}
	v, n1, err := ser.Unmarshal(data[n:])
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if rest := len(data) - n - n1; rest != 0 {
		return v, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, rest)
	}
	return v, nil
}

var (
	IDMUS    = idMUS{}
	UIDMUS   = uidMUS{}
	TimeMUS  = timeMUS{}
	PageMUS  = pageMUS{}
	BlockMUS = blockMUS{}

	tagsMUS  = ord.NewSliceSer[string](ord.String)
	propsMUS = ord.NewMapSer[string, string](ord.String, ord.String)
)

type idMUS struct{}

func (s idMUS) Marshal(v core.ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v core.ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return core.ID(u), n, err
}

func (s idMUS) Size(v core.ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type uidMUS struct{}

func (s uidMUS) Marshal(v core.UID, bs []byte) (n int) {
	return ord.String.Marshal(string(v), bs)
}

func (s uidMUS) Unmarshal(bs []byte) (v core.UID, n int, err error) {
	str, n, err := ord.String.Unmarshal(bs)
	return core.UID(str), n, err
}

func (s uidMUS) Size(v core.UID) (size int) {
	return ord.String.Size(string(v))
}

func (s uidMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

// timeMUS encodes a time as Unix nanoseconds in UTC. The zero time is
// written as 0.
type timeMUS struct{}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func (s timeMUS) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(unixNano(v), bs)
}

func (s timeMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	ns, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || ns == 0 {
		return time.Time{}, n, err
	}
	return time.Unix(0, ns).UTC(), n, nil
}

func (s timeMUS) Size(v time.Time) (size int) {
	return varint.Int64.Size(unixNano(v))
}

func (s timeMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

// fieldReader unmarshals consecutive fields and keeps the first error.
type fieldReader struct {
	bs  []byte
	n   int
	err error
}

func readField[T any](r *fieldReader, ser mus.Serializer[T]) (v T) {
	if r.err != nil {
		return v
	}
	v, n, err := ser.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func skipFields(bs []byte, skips ...func([]byte) (int, error)) (n int, err error) {
	for _, skip := range skips {
		n1, err := skip(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

type pageMUS struct{}

func (s pageMUS) Marshal(v core.Page, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += UIDMUS.Marshal(v.UID, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += TimeMUS.Marshal(v.CreatedAt, bs[n:])
	return n + TimeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (s pageMUS) Unmarshal(bs []byte) (v core.Page, n int, err error) {
	r := &fieldReader{bs: bs}
	v.Id = readField[core.ID](r, IDMUS)
	v.UID = readField[core.UID](r, UIDMUS)
	v.Title = readField[string](r, ord.String)
	v.CreatedAt = readField[time.Time](r, TimeMUS)
	v.UpdatedAt = readField[time.Time](r, TimeMUS)
	return v, r.n, r.err
}

func (s pageMUS) Size(v core.Page) (size int) {
	return IDMUS.Size(v.Id) +
		UIDMUS.Size(v.UID) +
		ord.String.Size(v.Title) +
		TimeMUS.Size(v.CreatedAt) +
		TimeMUS.Size(v.UpdatedAt)
}

func (s pageMUS) Skip(bs []byte) (n int, err error) {
	return skipFields(bs, IDMUS.Skip, UIDMUS.Skip, ord.String.Skip, TimeMUS.Skip, TimeMUS.Skip)
}

type blockMUS struct{}

func (s blockMUS) Marshal(v core.Block, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += UIDMUS.Marshal(v.UID, bs[n:])
	n += IDMUS.Marshal(v.PageId, bs[n:])
	n += UIDMUS.Marshal(v.ParentUID, bs[n:])
	n += varint.Int.Marshal(v.Order, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += tagsMUS.Marshal(v.Tags, bs[n:])
	n += propsMUS.Marshal(v.Props, bs[n:])
	n += TimeMUS.Marshal(v.CreatedAt, bs[n:])
	return n + TimeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (s blockMUS) Unmarshal(bs []byte) (v core.Block, n int, err error) {
	r := &fieldReader{bs: bs}
	v.Id = readField[core.ID](r, IDMUS)
	v.UID = readField[core.UID](r, UIDMUS)
	v.PageId = readField[core.ID](r, IDMUS)
	v.ParentUID = readField[core.UID](r, UIDMUS)
	v.Order = readField[int](r, varint.Int)
	v.Content = readField[string](r, ord.String)
	v.Tags = readField[[]string](r, tagsMUS)
	v.Props = readField[map[string]string](r, propsMUS)
	v.CreatedAt = readField[time.Time](r, TimeMUS)
	v.UpdatedAt = readField[time.Time](r, TimeMUS)
	if len(v.Tags) == 0 {
		v.Tags = nil
	}
	if len(v.Props) == 0 {
		v.Props = nil
	}
	return v, r.n, r.err
}

func (s blockMUS) Size(v core.Block) (size int) {
	return IDMUS.Size(v.Id) +
		UIDMUS.Size(v.UID) +
		IDMUS.Size(v.PageId) +
		UIDMUS.Size(v.ParentUID) +
		varint.Int.Size(v.Order) +
		ord.String.Size(v.Content) +
		tagsMUS.Size(v.Tags) +
		propsMUS.Size(v.Props) +
		TimeMUS.Size(v.CreatedAt) +
		TimeMUS.Size(v.UpdatedAt)
}

func (s blockMUS) Skip(bs []byte) (n int, err error) {
	return skipFields(bs, IDMUS.Skip, UIDMUS.Skip, IDMUS.Skip, UIDMUS.Skip, varint.Int.Skip,
		ord.String.Skip, tagsMUS.Skip, propsMUS.Skip, TimeMUS.Skip, TimeMUS.Skip)
}
