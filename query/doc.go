// Package query evaluates declarative queries against the embedded graph store.
//
// The language is the Datalog subset commonly used against note graphs,
// written in EDN:
//
//	[:find ?title ?string
//	 :in $ ?tag
//	 :where
//	 [?p :node/title ?title]
//	 [?b :block/page ?p]
//	 [?b :block/string ?string]
//	 [(clojure.string/includes? ?string ?tag)]]
//
// Supported are scalar :find variables, scalar :in bindings after the source
// symbol $, data patterns [e a v] with constants, variables and the blank _,
// and the predicates =, not=, <, >, <=, >= together with
// clojure.string/includes?, starts-with? and ends-with?. Pull expressions,
// aggregates, rules and collection bindings are rejected with ErrUnsupported.
//
// Evaluation joins clauses in order over the datoms a FactSource provides for
// each attribute. Result rows are distinct and returned in the order they were
// first produced.
package query
