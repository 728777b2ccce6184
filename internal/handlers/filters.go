package handlers

import (
	"net/url"
	"strings"

	"github.com/petermazzocco/cloud-vault/models"
)

// Predicate selects file records. Predicates compose with AND.
type Predicate func(f models.File) bool

// NameContains matches names containing s, case-sensitively.
func NameContains(s string) Predicate {
	return func(f models.File) bool { return strings.Contains(f.Name, s) }
}

func CategoryIs(category string) Predicate {
	return func(f models.File) bool { return f.Category == category }
}

func TypeIs(typ string) Predicate {
	return func(f models.File) bool { return f.Type == typ }
}

// PredicatesFromQuery reads the search, category and type query parameters.
// Empty parameters add no predicate.
func PredicatesFromQuery(q url.Values) []Predicate {
	var preds []Predicate
	if s := q.Get("search"); s != "" {
		preds = append(preds, NameContains(s))
	}
	if c := q.Get("category"); c != "" {
		preds = append(preds, CategoryIs(c))
	}
	if t := q.Get("type"); t != "" {
		preds = append(preds, TypeIs(t))
	}
	return preds
}

// Filter keeps the files matching every predicate, preserving order.
func Filter(files []models.File, preds ...Predicate) []models.File {
	out := make([]models.File, 0, len(files))
next:
	for _, f := range files {
		for _, p := range preds {
			if !p(f) {
				continue next
			}
		}
		out = append(out, f)
	}
	return out
}

// TotalSize sums file sizes; a negative size counts as zero.
func TotalSize(files []models.File) int64 {
	var total int64
	for _, f := range files {
		if f.Size > 0 {
			total += f.Size
		}
	}
	return total
}
