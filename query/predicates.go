package query

import (
	"strings"
)

type predicate struct {
	minArgs int
	maxArgs int // 0 means variadic
	eval    func(args []any) bool
}

var predicates = map[string]predicate{
	"clojure.string/includes?":    {minArgs: 2, maxArgs: 2, eval: stringPredicate(strings.Contains)},
	"clojure.string/starts-with?": {minArgs: 2, maxArgs: 2, eval: stringPredicate(strings.HasPrefix)},
	"clojure.string/ends-with?":   {minArgs: 2, maxArgs: 2, eval: stringPredicate(strings.HasSuffix)},
	"=":                           {minArgs: 1, eval: allEqual},
	"not=":                        {minArgs: 1, eval: func(args []any) bool { return !allEqual(args) }},
	"<":                           {minArgs: 1, eval: ordered(func(c int) bool { return c < 0 })},
	">":                           {minArgs: 1, eval: ordered(func(c int) bool { return c > 0 })},
	"<=":                          {minArgs: 1, eval: ordered(func(c int) bool { return c <= 0 })},
	">=":                          {minArgs: 1, eval: ordered(func(c int) bool { return c >= 0 })},
}

// stringPredicate is false when either argument is not a string.
func stringPredicate(fn func(s, sub string) bool) func([]any) bool {
	return func(args []any) bool {
		s, ok1 := args[0].(string)
		sub, ok2 := args[1].(string)
		return ok1 && ok2 && fn(s, sub)
	}
}

func allEqual(args []any) bool {
	for i := 1; i < len(args); i++ {
		if !equalValues(args[0], args[i]) {
			return false
		}
	}
	return true
}

// ordered checks every adjacent pair. Mixed or unordered types compare false.
func ordered(ok func(int) bool) func([]any) bool {
	return func(args []any) bool {
		for i := 1; i < len(args); i++ {
			c, comparable := compareValues(args[i-1], args[i])
			if !comparable || !ok(c) {
				return false
			}
		}
		return true
	}
}

func compareValues(a, b any) (int, bool) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	af, ok1 := toFloat(a)
	bf, ok2 := toFloat(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case EntityID:
		return float64(n), true
	}
	return 0, false
}

// valueKey maps a value to a comparable key under which numerically equal
// values of different Go types collide.
func valueKey(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case EntityID:
		return int64(n)
	case float64:
		if n == float64(int64(n)) {
			return int64(n)
		}
	}
	return v
}

func equalValues(a, b any) bool {
	return valueKey(a) == valueKey(b)
}
