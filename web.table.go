package main

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultPageSize is the number of rows shown per table page.
const DefaultPageSize = 10

// Sortable columns of the books table.
const (
	ColumnTitle     = "title"
	ColumnCreatedAt = "createdAt"
)

// SortState is the current table ordering. An empty Column means unsorted.
type SortState struct {
	Column string
	Desc   bool
}

// Param encodes the ordering the way it travels in page links.
func (s SortState) Param() string {
	if s.Column == "" {
		return ""
	}
	if s.Desc {
		return "-" + s.Column
	}
	return s.Column
}

// TableState holds everything the books table needs to render one view:
// title filter, ordering, current page and selected rows.
type TableState struct {
	Filter    string
	Sort      SortState
	PageIndex int
	PageSize  int
	Selection map[string]bool
}

// ParseTableState rebuilds the table state from page query parameters.
// Unknown or malformed values fall back to defaults.
func ParseTableState(q url.Values, pageSize int) TableState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	state := TableState{
		Filter:    q.Get("q"),
		PageSize:  pageSize,
		Selection: map[string]bool{},
	}

	raw := q.Get("sort")
	desc := strings.HasPrefix(raw, "-")
	switch col := strings.TrimPrefix(raw, "-"); col {
	case ColumnTitle, ColumnCreatedAt:
		state.Sort = SortState{Column: col, Desc: desc}
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 1 {
		state.PageIndex = page - 1
	}

	for _, id := range q["sel"] {
		if id != "" {
			state.Selection[id] = true
		}
	}
	return state
}

// Values encodes the state as page query parameters.
func (s TableState) Values() url.Values {
	v := url.Values{}
	if s.Filter != "" {
		v.Set("q", s.Filter)
	}
	if p := s.Sort.Param(); p != "" {
		v.Set("sort", p)
	}
	if s.PageIndex > 0 {
		v.Set("page", strconv.Itoa(s.PageIndex+1))
	}
	ids := make([]string, 0, len(s.Selection))
	for id, on := range s.Selection {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		v.Add("sel", id)
	}
	return v
}

// Encode returns the state as a query string.
func (s TableState) Encode() string {
	return s.Values().Encode()
}

// URL returns the books page link for this state.
func (s TableState) URL() string {
	if q := s.Encode(); q != "" {
		return "/book?" + q
	}
	return "/book"
}

func (s TableState) clone() TableState {
	c := s
	c.Selection = make(map[string]bool, len(s.Selection))
	for id, on := range s.Selection {
		if on {
			c.Selection[id] = true
		}
	}
	return c
}

// WithFilter sets the title filter and goes back to the first page.
// An empty value removes the filter.
func (s TableState) WithFilter(filter string) TableState {
	c := s.clone()
	c.Filter = filter
	c.PageIndex = 0
	return c
}

// WithSortToggled cycles the ordering of a column: ascending, descending, unsorted.
// Switching to another column starts again from ascending.
func (s TableState) WithSortToggled(column string) TableState {
	c := s.clone()
	switch {
	case c.Sort.Column != column:
		c.Sort = SortState{Column: column}
	case !c.Sort.Desc:
		c.Sort.Desc = true
	default:
		c.Sort = SortState{}
	}
	return c
}

// WithPage moves to the given zero-based page index.
func (s TableState) WithPage(index int) TableState {
	c := s.clone()
	if index < 0 {
		index = 0
	}
	c.PageIndex = index
	return c
}

// WithSelectionToggled selects or unselects a row.
func (s TableState) WithSelectionToggled(id string) TableState {
	c := s.clone()
	if c.Selection[id] {
		delete(c.Selection, id)
	} else {
		c.Selection[id] = true
	}
	return c
}

// SortURL is the link toggling the ordering of a column.
func (s TableState) SortURL(column string) string {
	return s.WithSortToggled(column).URL()
}

// SelectURL is the link toggling the selection of a row.
func (s TableState) SelectURL(id string) string {
	return s.WithSelectionToggled(id).URL()
}

// DialogURL is the link opening a dialog over the current view.
func (s TableState) DialogURL(kind, id string) string {
	v := s.Values()
	v.Set("dialog", kind)
	if id != "" {
		v.Set("id", id)
	}
	return "/book?" + v.Encode()
}

// BookTable applies a TableState to the loaded rows.
type BookTable struct {
	rows     []Book
	state    TableState
	filtered []Book
}

// NewBookTable filters and sorts the rows then clamps the page
// index to the available pages.
func NewBookTable(rows []Book, state TableState) *BookTable {
	if state.PageSize <= 0 {
		state.PageSize = DefaultPageSize
	}
	if state.Selection == nil {
		state.Selection = map[string]bool{}
	}
	t := &BookTable{rows: rows, state: state}
	t.filtered = sortBooks(filterBooks(rows, state.Filter), state.Sort)
	if last := t.PageCount() - 1; t.state.PageIndex > last {
		t.state.PageIndex = max(last, 0)
	}
	if t.state.PageIndex < 0 {
		t.state.PageIndex = 0
	}
	return t
}

// filterBooks keeps rows whose title contains the filter, ignoring case.
func filterBooks(rows []Book, filter string) []Book {
	out := make([]Book, 0, len(rows))
	if filter == "" {
		return append(out, rows...)
	}
	needle := strings.ToLower(filter)
	for _, b := range rows {
		if strings.Contains(strings.ToLower(b.Title), needle) {
			out = append(out, b)
		}
	}
	return out
}

func sortBooks(rows []Book, s SortState) []Book {
	var less func(a, b Book) bool
	switch s.Column {
	case ColumnTitle:
		less = func(a, b Book) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case ColumnCreatedAt:
		less = func(a, b Book) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if s.Desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
	return rows
}

// State returns the effective state after clamping.
func (t *BookTable) State() TableState {
	return t.state
}

// Rows returns the rows of the current page.
func (t *BookTable) Rows() []Book {
	start := t.state.PageIndex * t.state.PageSize
	if start >= len(t.filtered) {
		return []Book{}
	}
	end := start + t.state.PageSize
	if end > len(t.filtered) {
		end = len(t.filtered)
	}
	return t.filtered[start:end]
}

// FilteredCount is the number of rows matching the filter.
func (t *BookTable) FilteredCount() int {
	return len(t.filtered)
}

// SelectedCount is the number of selected rows among the filtered ones.
func (t *BookTable) SelectedCount() int {
	n := 0
	for _, b := range t.filtered {
		if t.state.Selection[b.ID] {
			n++
		}
	}
	return n
}

// IsSelected reports whether a row is selected.
func (t *BookTable) IsSelected(id string) bool {
	return t.state.Selection[id]
}

// PageCount is the number of pages of filtered rows.
func (t *BookTable) PageCount() int {
	return (len(t.filtered) + t.state.PageSize - 1) / t.state.PageSize
}

// PageNumber is the one-based current page.
func (t *BookTable) PageNumber() int {
	return t.state.PageIndex + 1
}

func (t *BookTable) CanPreviousPage() bool {
	return t.state.PageIndex > 0
}

func (t *BookTable) CanNextPage() bool {
	return t.state.PageIndex < t.PageCount()-1
}

// PreviousPageURL links to the previous page.
func (t *BookTable) PreviousPageURL() string {
	return t.state.WithPage(t.state.PageIndex - 1).URL()
}

// NextPageURL links to the next page.
func (t *BookTable) NextPageURL() string {
	return t.state.WithPage(t.state.PageIndex + 1).URL()
}

// Find returns a loaded row by id.
func (t *BookTable) Find(id string) (Book, bool) {
	for _, b := range t.rows {
		if b.ID == id {
			return b, true
		}
	}
	return Book{}, false
}
