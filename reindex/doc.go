// Package reindex rebuilds derived block data, currently the tag index, from
// block content already in the store.
//
// Blocks are read in batches, their tags are extracted again with the current
// rules, and only blocks whose tags changed are rewritten. Writes are retried
// with exponential backoff when the store reports a transaction conflict.
package reindex
