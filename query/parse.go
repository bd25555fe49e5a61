package query

import (
	"fmt"
	"strings"
)

// Var is a query variable such as ?e.
type Var string

// Blank is the wildcard _ in a data pattern.
type Blank struct{}

// Clause is a DataPattern or a Predicate.
type Clause interface {
	clause()
}

// DataPattern matches datoms [E A V]. E and V are a Var, Blank or constant.
type DataPattern struct {
	E any
	A string
	V any
}

// Predicate filters bindings with a built-in function.
type Predicate struct {
	Fn   string
	Args []any
}

func (DataPattern) clause() {}
func (Predicate) clause()   {}

// Query is a parsed declarative query.
type Query struct {
	Find  []Var
	In    []Var // scalar bindings following $, in input order
	Where []Clause
}

// Parse parses a query in vector form.
func Parse(src string) (*Query, error) {
	forms, err := ReadEDN(src)
	if err != nil {
		return nil, err
	}
	if len(forms) != 1 {
		return nil, fmt.Errorf("%w: expected a single query form, got %d", ErrParse, len(forms))
	}
	vec, ok := forms[0].(Vector)
	if !ok {
		return nil, fmt.Errorf("%w: query must be a vector", ErrParse)
	}

	sections := make(map[Keyword][]any)
	var current Keyword
	for _, item := range vec {
		if kw, ok := item.(Keyword); ok {
			switch kw {
			case ":find", ":in", ":where":
			case ":with", ":keys", ":strs", ":syms":
				return nil, fmt.Errorf("%w: %s", ErrUnsupported, kw)
			default:
				if current == "" {
					return nil, fmt.Errorf("%w: unknown section %s", ErrParse, kw)
				}
				sections[current] = append(sections[current], item)
				continue
			}
			if _, dup := sections[kw]; dup {
				return nil, fmt.Errorf("%w: duplicate section %s", ErrParse, kw)
			}
			current = kw
			sections[kw] = []any{}
			continue
		}
		if current == "" {
			return nil, fmt.Errorf("%w: query must start with :find", ErrParse)
		}
		sections[current] = append(sections[current], item)
	}

	q := &Query{}
	if err := q.parseFind(sections[":find"]); err != nil {
		return nil, err
	}
	if in, ok := sections[":in"]; ok {
		if err := q.parseIn(in); err != nil {
			return nil, err
		}
	}
	if err := q.parseWhere(sections[":where"]); err != nil {
		return nil, err
	}
	if err := q.checkBindings(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Query) parseFind(items []any) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: :find needs at least one variable", ErrParse)
	}
	for _, item := range items {
		switch v := item.(type) {
		case Symbol:
			if !isVar(v) {
				return fmt.Errorf("%w: find element %s", ErrUnsupported, v)
			}
			q.Find = append(q.Find, Var(v))
		case List:
			return fmt.Errorf("%w: aggregates and pull expressions in :find", ErrUnsupported)
		default:
			return fmt.Errorf("%w: invalid find element %v", ErrParse, item)
		}
	}
	return nil
}

func (q *Query) parseIn(items []any) error {
	for i, item := range items {
		switch v := item.(type) {
		case Symbol:
			switch {
			case v == "$":
				if i != 0 {
					return fmt.Errorf("%w: $ must be the first binding", ErrParse)
				}
			case v == "%":
				return fmt.Errorf("%w: rules", ErrUnsupported)
			case strings.HasPrefix(string(v), "$"):
				return fmt.Errorf("%w: multiple sources", ErrUnsupported)
			case isVar(v):
				q.In = append(q.In, Var(v))
			default:
				return fmt.Errorf("%w: invalid binding %s", ErrParse, v)
			}
		case Vector:
			return fmt.Errorf("%w: collection and tuple bindings", ErrUnsupported)
		default:
			return fmt.Errorf("%w: invalid binding %v", ErrParse, item)
		}
	}
	return nil
}

func (q *Query) parseWhere(items []any) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: :where needs at least one clause", ErrParse)
	}
	for _, item := range items {
		switch c := item.(type) {
		case Vector:
			clause, err := parseClause(c)
			if err != nil {
				return err
			}
			q.Where = append(q.Where, clause)
		case List:
			return fmt.Errorf("%w: not, or and rule clauses", ErrUnsupported)
		default:
			return fmt.Errorf("%w: invalid clause %v", ErrParse, item)
		}
	}
	return nil
}

func parseClause(vec Vector) (Clause, error) {
	if len(vec) > 0 {
		if call, ok := vec[0].(List); ok {
			if len(vec) > 1 {
				return nil, fmt.Errorf("%w: function bindings", ErrUnsupported)
			}
			return parsePredicate(call)
		}
	}

	if len(vec) > 0 && vec[0] == Symbol("$") {
		vec = vec[1:]
	}
	if len(vec) < 2 || len(vec) > 3 {
		if len(vec) > 3 {
			return nil, fmt.Errorf("%w: transaction position in data pattern", ErrUnsupported)
		}
		return nil, fmt.Errorf("%w: data pattern needs an entity and an attribute", ErrParse)
	}

	e, err := parseTerm(vec[0])
	if err != nil {
		return nil, err
	}
	attr, ok := vec[1].(Keyword)
	if !ok {
		return nil, fmt.Errorf("%w: attribute must be a keyword, got %v", ErrUnsupported, vec[1])
	}
	var v any = Blank{}
	if len(vec) == 3 {
		if v, err = parseTerm(vec[2]); err != nil {
			return nil, err
		}
	}
	return DataPattern{E: e, A: string(attr), V: v}, nil
}

func parsePredicate(call List) (Clause, error) {
	if len(call) == 0 {
		return nil, fmt.Errorf("%w: empty predicate", ErrParse)
	}
	name, ok := call[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: predicate name must be a symbol", ErrParse)
	}
	fn, ok := predicates[string(name)]
	if !ok {
		return nil, fmt.Errorf("%w: function %s", ErrUnsupported, name)
	}
	if len(call)-1 < fn.minArgs || (fn.maxArgs > 0 && len(call)-1 > fn.maxArgs) {
		return nil, fmt.Errorf("%w: wrong number of arguments to %s", ErrParse, name)
	}

	args := make([]any, 0, len(call)-1)
	for _, a := range call[1:] {
		term, err := parseTerm(a)
		if err != nil {
			return nil, err
		}
		if _, blank := term.(Blank); blank {
			return nil, fmt.Errorf("%w: _ is not allowed in predicates", ErrParse)
		}
		args = append(args, term)
	}
	return Predicate{Fn: string(name), Args: args}, nil
}

func parseTerm(item any) (any, error) {
	switch v := item.(type) {
	case Symbol:
		switch {
		case v == "_":
			return Blank{}, nil
		case isVar(v):
			return Var(v), nil
		}
		return nil, fmt.Errorf("%w: unexpected symbol %s", ErrParse, v)
	case Keyword, string, int64, float64, bool:
		return v, nil
	case nil:
		return nil, fmt.Errorf("%w: nil in clause", ErrParse)
	}
	return nil, fmt.Errorf("%w: nested collection in clause", ErrUnsupported)
}

// checkBindings verifies that predicates only see bound variables and that
// every find variable is bound by the time the clauses run out.
func (q *Query) checkBindings() error {
	bound := make(map[Var]bool)
	for _, v := range q.In {
		if bound[v] {
			return fmt.Errorf("%w: %s bound twice in :in", ErrParse, v)
		}
		bound[v] = true
	}
	for _, c := range q.Where {
		switch c := c.(type) {
		case DataPattern:
			for _, t := range []any{c.E, c.V} {
				if v, ok := t.(Var); ok {
					bound[v] = true
				}
			}
		case Predicate:
			for _, a := range c.Args {
				if v, ok := a.(Var); ok && !bound[v] {
					return fmt.Errorf("%w: %s is unbound in (%s ...)", ErrParse, v, c.Fn)
				}
			}
		}
	}
	for _, v := range q.Find {
		if !bound[v] {
			return fmt.Errorf("%w: find variable %s is never bound", ErrParse, v)
		}
	}
	return nil
}

func isVar(s Symbol) bool {
	return len(s) > 1 && s[0] == '?'
}
