package badger

import (
	"encoding/binary"

	"github.com/poiesic/graphsearch/core"
)

// Key prefixes for different data types
const (
	pagePrefix      = "pag:"
	pageUIDPrefix   = "paguid:"
	pageTitlePrefix = "pagtit:"
	blockPrefix     = "blk:"
	blockUIDPrefix  = "blkuid:"
	blockPagePrefix = "blkpag:"
	blockTagPrefix  = "blktag:"
	nodeIDSeq       = "nodeseq"
)

// appendID writes id in BigEndian order so lexicographic sort matches numeric order.
func appendID(buf []byte, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// idSuffix reads the trailing id of an index key.
func idSuffix(key []byte) core.ID {
	if len(key) < 8 {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makePageKey generates a key for a page by ID.
func makePageKey(id core.ID) []byte {
	return appendID([]byte(pagePrefix), id)
}

// makePageUIDKey generates the uid index key of a page.
func makePageUIDKey(uid core.UID) []byte {
	return []byte(pageUIDPrefix + string(uid))
}

// makePageTitleKey generates the title index key of a page.
// Scanning pageTitlePrefix+prefix yields pages by title prefix in title order.
func makePageTitleKey(title string) []byte {
	return []byte(pageTitlePrefix + title)
}

// makeBlockKey generates a key for a block by ID.
func makeBlockKey(id core.ID) []byte {
	return appendID([]byte(blockPrefix), id)
}

// makeBlockUIDKey generates the uid index key of a block.
func makeBlockUIDKey(uid core.UID) []byte {
	return []byte(blockUIDPrefix + string(uid))
}

// makeBlockPageKey generates a composite key for the page index.
// Format: prefix:pageID:blockID
func makeBlockPageKey(pageID, blockID core.ID) []byte {
	return appendID(makePartialBlockPageKey(pageID), blockID)
}

// makePartialBlockPageKey generates a partial key for page queries.
func makePartialBlockPageKey(pageID core.ID) []byte {
	return appendID([]byte(blockPagePrefix), pageID)
}

// makeBlockTagKey generates a composite key for the tag index.
// Format: prefix:tag\x00blockID
func makeBlockTagKey(tag string, blockID core.ID) []byte {
	return appendID(makePartialBlockTagKey(tag), blockID)
}

// makePartialBlockTagKey generates a partial key for tag queries. The
// terminator keeps "Go" from matching the keys of "Golang".
func makePartialBlockTagKey(tag string) []byte {
	buf := make([]byte, 0, len(blockTagPrefix)+len(tag)+9)
	buf = append(buf, blockTagPrefix...)
	buf = append(buf, tag...)
	return append(buf, 0)
}
