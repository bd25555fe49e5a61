// Package output renders search results for the command line.
//
// A Printer writes either indented JSON or line-oriented text styled with
// lipgloss. The shape depends on the mode that produced the result:
//
//   - text and tag searches print matches with their page and tags;
//   - namespace searches print page references;
//   - declarative searches print one row per line, and in JSON each row is
//     decoded back into its structured form.
//
// Failed results print their message. DebugMonitor traces a search stage by
// stage.
package output
