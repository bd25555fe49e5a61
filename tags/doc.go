// Package tags handles the three surface syntaxes of a tag reference.
//
// A tag named T may appear in block text as a hashtag (#T), a page reference
// ([[T]]) or a hashtag reference (#[[T]]). Normalize maps any of these to T,
// Contains tests block text for any of them, and Extract lists the tags a
// block references.
package tags
