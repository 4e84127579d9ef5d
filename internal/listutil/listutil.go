// Package listutil parses list query parameters and pages in-memory
// snapshots. Every list endpoint fetches the full collection and narrows it
// here, so search, sort and paging all act on the same snapshot.
package listutil

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 20

// MaxPerPage caps what a client may ask for.
const MaxPerPage = 200

// Params combines all list parameters of a request.
type Params struct {
	Page    int               `json:"page"`
	PerPage int               `json:"perPage"`
	Sort    string            `json:"sort,omitempty"`
	Desc    bool              `json:"desc,omitempty"`
	Search  string            `json:"q,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

// Filter returns the value of a recognised filter key, or "".
func (p Params) Filter(key string) string {
	return p.Filters[key]
}

// Parse extracts page, per_page, sort, dir, q and the allowed filter keys.
// Unknown sort columns are dropped; perPageDefault applies when per_page is
// missing or out of range.
func Parse(q url.Values, perPageDefault int, sortCols, filterKeys []string) Params {
	if perPageDefault < 1 {
		perPageDefault = DefaultPerPage
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 || perPage > MaxPerPage {
		perPage = perPageDefault
	}

	p := Params{
		Page:    page,
		PerPage: perPage,
		Search:  strings.TrimSpace(q.Get("q")),
		Filters: make(map[string]string),
		Desc:    q.Get("dir") == "desc",
	}
	if col := q.Get("sort"); contains(sortCols, col) {
		p.Sort = col
	}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			p.Filters[key] = v
		}
	}
	return p
}

// PageInfo carries pagination metadata.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPageInfo computes pagination metadata with Page clamped to a valid range.
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the index of the first row on the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is one page of a list together with its metadata.
type Page[T any] struct {
	Items []T      `json:"items"`
	Info  PageInfo `json:"pageInfo"`
}

// Paginate slices items to the requested page. Items is never nil.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	info := NewPageInfo(page, perPage, len(items))
	start := info.Offset()
	end := start + info.PerPage
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)
	return Page[T]{Items: out, Info: info}
}

// Where keeps the items matching keep.
func Where[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// SortBy stable-sorts items in place by less, reversed when desc.
func SortBy[T any](items []T, desc bool, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// MatchesAny reports whether any of fields contains the search term,
// ignoring case. An empty term matches everything.
func MatchesAny(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
