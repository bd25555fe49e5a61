package tags

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize returns the canonical name of a tag written as #T, [[T]] or #[[T]].
//
// A single pass strips one leading '#', then up to two leading '[', then up to two
// trailing ']'. Partial brackets are stripped rather than rejected. Passes repeat
// until the value is stable so that Normalize(Normalize(t)) == Normalize(t) for
// every input, including oddities such as "##T".
func Normalize(tag string) string {
	for {
		next := normalizeOnce(tag)
		if next == tag {
			return next
		}
		tag = next
	}
}

func normalizeOnce(tag string) string {
	tag = strings.TrimPrefix(tag, "#")
	for range 2 {
		tag = strings.TrimPrefix(tag, "[")
	}
	for range 2 {
		tag = strings.TrimSuffix(tag, "]")
	}
	return tag
}

// NormalizeAll normalizes every tag and drops those that are empty once normalized.
func NormalizeAll(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if n := Normalize(strings.TrimSpace(t)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Contains reports whether content references tag as [[T]], #T or #[[T]].
//
// Matching is plain substring containment: Contains("#Golang", "Go") is true.
// An empty tag matches nothing.
func Contains(content, tag string) bool {
	normalized := Normalize(tag)
	if normalized == "" {
		return false
	}
	return strings.Contains(content, "[["+normalized+"]]") ||
		strings.Contains(content, "#"+normalized) ||
		strings.Contains(content, "#[["+normalized+"]]")
}

// Extract returns the canonical tags referenced by content, in order of first
// appearance and without duplicates.
func Extract(content string) []string {
	var found []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		found = append(found, t)
	}

	for i := 0; i < len(content); {
		switch {
		case strings.HasPrefix(content[i:], "#[["):
			name, end := readBracketed(content, i+1)
			if end < 0 {
				i += 3
				continue
			}
			add(name)
			i = end
		case strings.HasPrefix(content[i:], "[["):
			name, end := readBracketed(content, i)
			if end < 0 {
				i += 2
				continue
			}
			add(name)
			i = end
		case content[i] == '#':
			name, end := readHashtag(content, i+1)
			add(name)
			i = end
		default:
			i++
		}
	}
	return found
}

// readBracketed reads a [[...]] reference starting at start, honoring nested
// references. It returns the inner text and the index after the closing brackets,
// or -1 when the reference is not closed.
func readBracketed(s string, start int) (string, int) {
	depth := 0
	for i := start; i < len(s)-1; i++ {
		switch {
		case s[i] == '[' && s[i+1] == '[':
			depth++
			i++
		case s[i] == ']' && s[i+1] == ']':
			depth--
			i++
			if depth == 0 {
				return s[start+2 : i-1], i + 1
			}
		}
	}
	return "", -1
}

func readHashtag(s string, start int) (string, int) {
	end := start
	for end < len(s) {
		if s[end] >= utf8.RuneSelf {
			// Multi-byte runes are part of the tag unless they are spaces or punctuation.
			r, size := utf8.DecodeRuneInString(s[end:])
			if unicode.IsSpace(r) || unicode.IsPunct(r) {
				break
			}
			end += size
			continue
		}
		if !isHashtagByte(s[end]) {
			break
		}
		end++
	}
	name := strings.TrimRight(s[start:end], ".:")
	return name, max(end, start+1)
}

func isHashtagByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '/' || b == '.' || b == ':':
		return true
	}
	return false
}
