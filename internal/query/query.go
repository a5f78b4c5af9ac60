// Package query filters, sorts, and labels entries. Every function is pure:
// inputs are never modified and the store is never touched.
package query

import (
	"cmp"
	"slices"
	"sort"
	"strings"

	"github.com/pixievault/pixievault/internal/vault"
)

// AnyField is the selector value that searches every field.
const AnyField = "Any"

// FieldLabels returns the six base field names followed by every distinct
// custom key found across entries. Custom keys are sorted byte-wise, so
// upper-case keys come before lower-case ones.
func FieldLabels(entries []vault.Entry) []string {
	extras := make(map[string]struct{})
	for _, e := range entries {
		for k := range e.Custom {
			extras[k] = struct{}{}
		}
	}

	custom := make([]string, 0, len(extras))
	for k := range extras {
		custom = append(custom, k)
	}
	sort.Strings(custom)

	labels := make([]string, 0, len(vault.BaseFieldNames)+len(custom))
	labels = append(labels, vault.BaseFieldNames...)
	return append(labels, custom...)
}

// Matches reports whether term occurs, ignoring case, in the given field of e.
// An empty field or AnyField searches all base and custom values. A field that
// is neither a base field nor a custom key of e never matches. The empty term
// is a substring of everything and therefore always matches; callers that want
// a blank search to mean "no filter" should skip calling Matches.
func Matches(e vault.Entry, term, field string) bool {
	t := strings.ToLower(term)

	if field == "" || field == AnyField {
		for _, name := range vault.BaseFieldNames {
			v, _ := e.BaseValue(name)
			if strings.Contains(strings.ToLower(v), t) {
				return true
			}
		}
		for _, v := range e.Custom {
			if strings.Contains(strings.ToLower(v), t) {
				return true
			}
		}
		return false
	}

	v, ok := e.Lookup(field)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(v), t)
}

// Criteria is a complete list query as issued by a presentation shell.
type Criteria struct {
	Term  string
	Field string
	Sort  SortMode
}

// Filter applies c to entries. A term that is blank after trimming disables
// filtering; the result is always sorted by c.Sort.
func Filter(entries []vault.Entry, c Criteria) []vault.Entry {
	term := strings.TrimSpace(c.Term)
	if term == "" {
		return Sort(entries, c.Sort)
	}

	matched := make([]vault.Entry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, term, c.Field) {
			matched = append(matched, e)
		}
	}
	return Sort(matched, c.Sort)
}

// SortMode selects the ordering applied by Sort.
type SortMode string

// Recognized sort modes.
const (
	SortByName          SortMode = "A→Z"
	SortRecentlyAdded   SortMode = "Recently Added"
	SortRecentlyUpdated SortMode = "Recently Updated"
	SortMostUsed        SortMode = "Most Used"
)

// SortModes lists the recognized modes in selector order.
var SortModes = []SortMode{SortByName, SortRecentlyAdded, SortRecentlyUpdated, SortMostUsed}

var sortAliases = map[string]SortMode{
	"az":               SortByName,
	"a-z":              SortByName,
	"name":             SortByName,
	"added":            SortRecentlyAdded,
	"created":          SortRecentlyAdded,
	"recently-added":   SortRecentlyAdded,
	"updated":          SortRecentlyUpdated,
	"modified":         SortRecentlyUpdated,
	"recently-updated": SortRecentlyUpdated,
	"used":             SortMostUsed,
	"most-used":        SortMostUsed,
}

// ParseSortMode accepts a canonical mode name or a short alias such as "az" or
// "most-used". Anything else is returned unchanged, which Sort treats as
// "keep the input order".
func ParseSortMode(s string) SortMode {
	for _, m := range SortModes {
		if string(m) == s {
			return m
		}
	}
	if m, ok := sortAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m
	}
	return SortMode(s)
}

// Sort returns a new slice ordered by mode. The sort is stable, so entries
// that compare equal keep their relative order. Unrecognized modes return the
// entries in their input order.
func Sort(entries []vault.Entry, mode SortMode) []vault.Entry {
	out := slices.Clone(entries)
	if out == nil {
		out = []vault.Entry{}
	}

	var compare func(a, b vault.Entry) int
	switch mode {
	case SortByName:
		compare = func(a, b vault.Entry) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortRecentlyAdded:
		compare = func(a, b vault.Entry) int {
			return cmp.Compare(b.CreatedAt, a.CreatedAt)
		}
	case SortRecentlyUpdated:
		compare = func(a, b vault.Entry) int {
			return cmp.Compare(b.UpdatedAt, a.UpdatedAt)
		}
	case SortMostUsed:
		compare = func(a, b vault.Entry) int {
			if c := cmp.Compare(b.AccessCount, a.AccessCount); c != 0 {
				return c
			}
			return cmp.Compare(b.LastAccess(), a.LastAccess())
		}
	default:
		return out
	}

	slices.SortStableFunc(out, compare)
	return out
}
