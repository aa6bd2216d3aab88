package main

// DialogKind identifies which dialog of the books page is open.
type DialogKind int

const (
	DialogNone DialogKind = iota
	DialogForm
	DialogView
	DialogDelete
)

var dialogNames = map[DialogKind]string{
	DialogNone:   "",
	DialogForm:   "form",
	DialogView:   "view",
	DialogDelete: "delete",
}

func (k DialogKind) String() string {
	return dialogNames[k]
}

// ParseDialogKind maps a link parameter to a dialog kind.
func ParseDialogKind(s string) DialogKind {
	for k, name := range dialogNames {
		if name == s && s != "" {
			return k
		}
	}
	return DialogNone
}

// DialogState is the single dialog of the books page. At most one dialog
// is open and it carries the book it acts on. The form dialog without a
// book is the creation form.
type DialogState struct {
	kind DialogKind
	book *Book
}

// NoDialog is the closed state.
func NoDialog() DialogState {
	return DialogState{}
}

// OpenCreateDialog opens the empty book form.
func OpenCreateDialog() DialogState {
	return DialogState{kind: DialogForm}
}

// OpenEditDialog opens the book form filled with an existing book.
func OpenEditDialog(book Book) DialogState {
	return DialogState{kind: DialogForm, book: &book}
}

// OpenViewDialog opens the details of a book.
func OpenViewDialog(book Book) DialogState {
	return DialogState{kind: DialogView, book: &book}
}

// OpenDeleteDialog opens the deletion confirmation of a book.
func OpenDeleteDialog(book Book) DialogState {
	return DialogState{kind: DialogDelete, book: &book}
}

// Close returns the closed state whatever dialog was open.
func (d DialogState) Close() DialogState {
	return NoDialog()
}

func (d DialogState) Kind() DialogKind {
	return d.kind
}

func (d DialogState) IsOpen() bool {
	return d.kind != DialogNone
}

func (d DialogState) IsForm() bool {
	return d.kind == DialogForm
}

func (d DialogState) IsView() bool {
	return d.kind == DialogView
}

func (d DialogState) IsDelete() bool {
	return d.kind == DialogDelete
}

// IsEdit reports whether the form dialog edits an existing book.
func (d DialogState) IsEdit() bool {
	return d.kind == DialogForm && d.book != nil
}

// Book returns the book the dialog acts on, if any.
func (d DialogState) Book() (Book, bool) {
	if d.book == nil {
		return Book{}, false
	}
	return *d.book, true
}

// Selected returns the book the dialog acts on or a zero book.
// Templates use it since they cannot handle two return values.
func (d DialogState) Selected() Book {
	b, _ := d.Book()
	return b
}

// ResolveDialog builds the dialog requested by page links. Dialogs acting
// on a book that is not loaded stay closed.
func ResolveDialog(kind DialogKind, id string, table *BookTable) DialogState {
	if kind == DialogForm && id == "" {
		return OpenCreateDialog()
	}
	if kind == DialogNone {
		return NoDialog()
	}
	book, ok := table.Find(id)
	if !ok {
		return NoDialog()
	}
	switch kind {
	case DialogForm:
		return OpenEditDialog(book)
	case DialogView:
		return OpenViewDialog(book)
	case DialogDelete:
		return OpenDeleteDialog(book)
	}
	return NoDialog()
}
