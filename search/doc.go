// Package search dispatches block and page searches over a note graph.
//
// A Request is mapped to exactly one Mode, with precedence
//   - NamespaceSearch: pages whose title starts with "<prefix>/"
//   - DeclarativeSearch: a raw query in the store's query language
//   - TagSearch: tags given without free text
//   - TextSearch: free text, optionally narrowed by tags
//
// The Searcher issues a single call to its Executor for the selected mode and
// then refines the returned matches locally: a case-insensitive text recheck,
// tag inclusion with AND/OR logic, tag exclusion, and a regex post filter for
// declarative queries. Results are truncated to the requested limit while the
// total count before truncation is reported alongside.
//
// Failures never cross the package boundary as Go errors. Search always returns
// a SearchResult; unsuccessful results carry a message and an Err that can be
// matched with errors.Is against the sentinels in this package.
package search
