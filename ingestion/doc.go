// Package ingestion loads graph exports into the store.
//
// An export is a JSON array of pages, each with nested child blocks:
//
//	[{"title": "Inbox", "uid": "...", "create-time": 1700000000000,
//	  "children": [{"string": "Weekly #meeting", "uid": "...", "heading": 2,
//	                "children": [...]}]}]
//
// Keys the store does not model are kept as block properties. Blocks are
// tagged with the tags their text references, which is what tag searches use.
// Pages are imported concurrently on a worker pool; re-importing a page with
// a known uid replaces its blocks.
package ingestion
