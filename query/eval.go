package query

import (
	"context"
	"fmt"
	"strings"
)

// Attributes served by the graph store.
const (
	AttrBlockUID      = ":block/uid"
	AttrBlockString   = ":block/string"
	AttrBlockPage     = ":block/page"
	AttrBlockOrder    = ":block/order"
	AttrBlockChildren = ":block/children"
	AttrBlockParents  = ":block/parents"
	AttrBlockRefs     = ":block/refs"
	AttrNodeTitle     = ":node/title"
	AttrCreateTime    = ":create/time"
	AttrEditTime      = ":edit/time"
)

// EntityID identifies a page or block entity.
type EntityID uint64

// Datom is a single entity/attribute/value fact. V is a string, an int64
// or, for reference attributes, an EntityID.
type Datom struct {
	E EntityID
	A string
	V any
}

// FactSource provides the datoms of one attribute.
type FactSource interface {
	Datoms(ctx context.Context, attr string) ([]Datom, error)
}

type binding map[Var]any

// Run parses src and evaluates it against facts.
func Run(ctx context.Context, facts FactSource, src string, inputs []any) ([][]any, error) {
	q, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return q.Eval(ctx, facts, inputs)
}

// Eval evaluates the query with inputs bound to the :in variables in order.
// Rows are distinct and ordered by first appearance.
func (q *Query) Eval(ctx context.Context, facts FactSource, inputs []any) ([][]any, error) {
	if len(inputs) != len(q.In) {
		return nil, fmt.Errorf("%w: query expects %d inputs, got %d", ErrInputs, len(q.In), len(inputs))
	}
	initial := make(binding, len(q.In))
	for i, v := range q.In {
		if !isScalar(inputs[i]) {
			return nil, fmt.Errorf("%w: input %d for %s must be a scalar", ErrInputs, i, v)
		}
		initial[v] = inputs[i]
	}

	ev := &evaluator{facts: facts, indexes: make(map[string]*attrIndex)}
	rels := []binding{initial}
	for _, c := range q.Where {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		switch c := c.(type) {
		case DataPattern:
			rels, err = ev.join(ctx, c, rels)
		case Predicate:
			rels = filter(c, rels)
		}
		if err != nil {
			return nil, err
		}
		if len(rels) == 0 {
			break
		}
	}

	rows := make([][]any, 0, len(rels))
	seen := make(map[string]bool, len(rels))
	for _, b := range rels {
		row := make([]any, len(q.Find))
		for i, v := range q.Find {
			row[i] = b[v]
		}
		key := rowKey(row)
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, row)
	}
	return rows, nil
}

type attrIndex struct {
	datoms []Datom
	byE    map[any][]int
	byV    map[any][]int
}

type evaluator struct {
	facts   FactSource
	indexes map[string]*attrIndex
}

func (ev *evaluator) index(ctx context.Context, attr string) (*attrIndex, error) {
	if idx, ok := ev.indexes[attr]; ok {
		return idx, nil
	}
	datoms, err := ev.facts.Datoms(ctx, attr)
	if err != nil {
		return nil, err
	}
	idx := &attrIndex{
		datoms: datoms,
		byE:    make(map[any][]int),
		byV:    make(map[any][]int),
	}
	for i, d := range datoms {
		idx.byE[valueKey(d.E)] = append(idx.byE[valueKey(d.E)], i)
		idx.byV[valueKey(d.V)] = append(idx.byV[valueKey(d.V)], i)
	}
	ev.indexes[attr] = idx
	return idx, nil
}

func (ev *evaluator) join(ctx context.Context, p DataPattern, rels []binding) ([]binding, error) {
	idx, err := ev.index(ctx, p.A)
	if err != nil {
		return nil, err
	}

	var out []binding
	for _, b := range rels {
		for _, i := range idx.candidates(p, b) {
			d := idx.datoms[i]
			next, ok := unify(b, p.E, d.E)
			if !ok {
				continue
			}
			if next, ok = unify(next, p.V, d.V); ok {
				out = append(out, next)
			}
		}
	}
	return out, nil
}

// candidates narrows the datoms to scan using whichever side of the pattern
// is already known.
func (idx *attrIndex) candidates(p DataPattern, b binding) []int {
	if e, ok := resolve(p.E, b); ok {
		return idx.byE[valueKey(e)]
	}
	if v, ok := resolve(p.V, b); ok {
		return idx.byV[valueKey(v)]
	}
	all := make([]int, len(idx.datoms))
	for i := range all {
		all[i] = i
	}
	return all
}

// resolve returns the value of term under b, if it has one.
func resolve(term any, b binding) (any, bool) {
	switch t := term.(type) {
	case Blank:
		return nil, false
	case Var:
		v, ok := b[t]
		return v, ok
	}
	return term, true
}

// unify returns b extended so that term matches value. b is never modified.
func unify(b binding, term any, value any) (binding, bool) {
	switch t := term.(type) {
	case Blank:
		return b, true
	case Var:
		if existing, ok := b[t]; ok {
			return b, equalValues(existing, value)
		}
		next := make(binding, len(b)+1)
		for k, v := range b {
			next[k] = v
		}
		next[t] = value
		return next, true
	}
	if kw, ok := term.(Keyword); ok {
		term = string(kw)
	}
	return b, equalValues(term, value)
}

func filter(p Predicate, rels []binding) []binding {
	fn := predicates[p.Fn]
	out := rels[:0:0]
	args := make([]any, len(p.Args))
	for _, b := range rels {
		for i, a := range p.Args {
			args[i], _ = resolve(a, b)
		}
		if fn.eval(args) {
			out = append(out, b)
		}
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int64, float64:
		return true
	}
	return false
}

func rowKey(row []any) string {
	var sb strings.Builder
	for _, v := range row {
		fmt.Fprintf(&sb, "%T:%v\x00", valueKey(v), valueKey(v))
	}
	return sb.String()
}
