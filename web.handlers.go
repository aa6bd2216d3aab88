package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Fixed messages of the books page banner.
const (
	AlertBookCreated    = "Livro adicionado com sucesso!"
	AlertBookUpdated    = "Livro atualizado com sucesso!"
	AlertBookDeleted    = "Livro \"%s\" apagado com sucesso!"
	AlertSaveFailed     = "Ocorreu um erro ao salvar o livro."
	AlertDeleteFailed   = "Ocorreu um erro ao deletar o livro."
	AlertLoginReceived  = "Login recebido. A autenticação ainda não está disponível."
	AlertRegisterSubmit = "Cadastro recebido. A criação de contas ainda não está disponível."
)

// bookTableColumns is the number of columns of the books table.
const bookTableColumns = 4

// BookPageData feeds the books page template.
type BookPageData struct {
	Alert   string
	State   TableState
	Table   *BookTable
	Columns int
	Dialog  DialogState
	Form    BookForm
	Errors  FormErrors
}

// AuthPageData feeds the login and register templates.
type AuthPageData struct {
	Alert  string
	Form   interface{}
	Errors FormErrors
}

// loadBookTable reads all books and applies the table state on them.
// A storage failure yields an empty table and the failure message.
func (api *APIHandler) loadBookTable(ctx context.Context, state TableState) (*BookTable, string) {
	books, err := api.bookService.GetAll(ctx)
	if err != nil {
		api.logger.Error("failed to load books page",
			zap.String("request.id", GetValueFromContext(ctx, ContextRequestID)),
			zap.Error(err),
		)
		return NewBookTable(nil, state), ErrMsgListBooks
	}
	return NewBookTable(books, state), ""
}

// formTableState restores the table state a form was submitted from.
func (api *APIHandler) formTableState(r *http.Request) TableState {
	values, err := url.ParseQuery(r.PostForm.Get("state"))
	if err != nil {
		values = url.Values{}
	}
	return ParseTableState(values, api.pageSize())
}

// redirectToBooks sends the browser back to the table view with a feedback code.
func redirectToBooks(w http.ResponseWriter, r *http.Request, state TableState, extra url.Values) {
	v := state.Values()
	for key, vals := range extra {
		for _, val := range vals {
			v.Add(key, val)
		}
	}
	http.Redirect(w, r, "/book?"+v.Encode(), http.StatusSeeOther)
}

// feedbackAlert maps the redirect feedback code to its banner message.
func feedbackAlert(q url.Values) string {
	switch q.Get("msg") {
	case "created":
		return AlertBookCreated
	case "updated":
		return AlertBookUpdated
	case "deleted":
		return fmt.Sprintf(AlertBookDeleted, q.Get("title"))
	}
	return ""
}

func (api *APIHandler) renderBookPage(w http.ResponseWriter, r *http.Request, status int, data BookPageData) {
	data.Columns = bookTableColumns
	if data.Errors == nil {
		data.Errors = FormErrors{}
	}
	if err := api.pages.Render(w, PageBook, status, data); err != nil {
		requestID := GetValueFromContext(r.Context(), ContextRequestID)
		api.logger.Error("failed to render books page", zap.String("request.id", requestID), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (api *APIHandler) renderAuthPage(w http.ResponseWriter, r *http.Request, page string, status int, data AuthPageData) {
	if data.Errors == nil {
		data.Errors = FormErrors{}
	}
	if err := api.pages.Render(w, page, status, data); err != nil {
		requestID := GetValueFromContext(r.Context(), ContextRequestID)
		api.logger.Error("failed to render auth page", zap.String("page", page), zap.String("request.id", requestID), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// BookPage renders the books table with the dialog requested by the link.
func (api *APIHandler) BookPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	table, alert := api.loadBookTable(r.Context(), ParseTableState(q, api.pageSize()))
	if alert == "" {
		alert = feedbackAlert(q)
	}

	dialog := ResolveDialog(ParseDialogKind(q.Get("dialog")), q.Get("id"), table)
	var form BookForm
	if book, ok := dialog.Book(); ok && dialog.IsEdit() {
		form = BookForm{Title: book.Title, Description: book.Description}
	}

	api.renderBookPage(w, r, http.StatusOK, BookPageData{
		Alert:  alert,
		State:  table.State(),
		Table:  table,
		Dialog: dialog,
		Form:   form,
	})
}

// CreateBookForm handles the add book dialog submission.
func (api *APIHandler) CreateBookForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.saveBookForm(w, r, "")
}

// UpdateBookForm handles the edit book dialog submission.
func (api *APIHandler) UpdateBookForm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	api.saveBookForm(w, r, ps.ByName("id"))
}

// saveBookForm validates the book form then creates the book when id is
// empty or updates it otherwise. Failures keep the form dialog open.
func (api *APIHandler) saveBookForm(w http.ResponseWriter, r *http.Request, id string) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	form, perr := ParseBookForm(r)
	state := api.formTableState(r)

	reopen := func(status int, alert string, errs FormErrors) {
		table, loadAlert := api.loadBookTable(r.Context(), state)
		if alert == "" {
			alert = loadAlert
		}
		dialog := OpenCreateDialog()
		if id != "" {
			book, ok := table.Find(id)
			if !ok {
				book = Book{ID: id}
			}
			dialog = OpenEditDialog(book)
		}
		api.renderBookPage(w, r, status, BookPageData{
			Alert:  alert,
			State:  table.State(),
			Table:  table,
			Dialog: dialog,
			Form:   form,
			Errors: errs,
		})
	}

	if perr != nil {
		api.logger.Error("failed to parse book form", zap.String("request.id", requestID), zap.Error(perr))
		reopen(http.StatusBadRequest, AlertSaveFailed, nil)
		return
	}

	if err := ValidateBookForm(form); err != nil {
		fe, ok := AsFormErrors(err)
		if !ok {
			api.logger.Error("failed to validate book form", zap.String("request.id", requestID), zap.Error(err))
			reopen(http.StatusInternalServerError, AlertSaveFailed, nil)
			return
		}
		reopen(http.StatusUnprocessableEntity, "", fe)
		return
	}

	req := BookRequest{Title: &form.Title, Description: &form.Description}
	var (
		book Book
		err  error
		msg  string
	)
	if id == "" {
		book, err = api.bookService.Create(r.Context(), req)
		msg = "created"
	} else {
		book, err = api.bookService.Update(r.Context(), id, req)
		msg = "updated"
	}
	if err != nil {
		api.logger.Error("failed to save book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		reopen(http.StatusInternalServerError, AlertSaveFailed, nil)
		return
	}

	api.logger.Info("success to save book", zap.String("book.id", book.ID), zap.String("request.id", requestID))
	redirectToBooks(w, r, state, url.Values{"msg": {msg}})
}

// DeleteBookForm handles the delete confirmation dialog submission.
func (api *APIHandler) DeleteBookForm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	if err := r.ParseForm(); err != nil {
		api.logger.Error("failed to parse delete form", zap.String("request.id", requestID), zap.Error(err))
	}
	state := api.formTableState(r)

	book, err := api.bookService.GetOne(r.Context(), id)
	if err == nil {
		err = api.bookService.Delete(r.Context(), id)
	}
	if err != nil {
		api.logger.Error("failed to delete book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		table, _ := api.loadBookTable(r.Context(), state)
		dialog := NoDialog()
		if current, ok := table.Find(id); ok {
			dialog = OpenDeleteDialog(current)
		}
		api.renderBookPage(w, r, http.StatusInternalServerError, BookPageData{
			Alert:  AlertDeleteFailed,
			State:  table.State(),
			Table:  table,
			Dialog: dialog,
		})
		return
	}

	api.logger.Info("success to delete book", zap.String("book.id", id), zap.String("request.id", requestID))
	state.Selection[id] = false
	redirectToBooks(w, r, state, url.Values{"msg": {"deleted"}, "title": {book.Title}})
}

// LoginPage renders the empty login form.
func (api *APIHandler) LoginPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.renderAuthPage(w, r, PageLogin, http.StatusOK, AuthPageData{Form: LoginForm{}})
}

// Login validates the login form. Valid submissions are only logged.
func (api *APIHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	form, err := ParseLoginForm(r)
	if err == nil {
		err = ValidateLoginForm(form)
	}
	form.Password = ""
	if err != nil {
		fe, _ := AsFormErrors(err)
		api.renderAuthPage(w, r, PageLogin, http.StatusUnprocessableEntity, AuthPageData{Form: form, Errors: fe})
		return
	}
	api.logger.Info("login form submitted", zap.String("user.email", form.Email), zap.String("request.id", requestID))
	api.renderAuthPage(w, r, PageLogin, http.StatusOK, AuthPageData{Alert: AlertLoginReceived, Form: LoginForm{}})
}

// RegisterPage renders the empty registration form.
func (api *APIHandler) RegisterPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.renderAuthPage(w, r, PageRegister, http.StatusOK, AuthPageData{Form: RegisterForm{}})
}

// Register validates the registration form. Valid submissions are only logged.
func (api *APIHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	form, err := ParseRegisterForm(r)
	if err == nil {
		err = ValidateRegisterForm(form)
	}
	form.Password, form.ConfirmPassword = "", ""
	if err != nil {
		fe, _ := AsFormErrors(err)
		api.renderAuthPage(w, r, PageRegister, http.StatusUnprocessableEntity, AuthPageData{Form: form, Errors: fe})
		return
	}
	api.logger.Info("register form submitted",
		zap.String("user.name", form.Name),
		zap.String("user.email", form.Email),
		zap.String("request.id", requestID),
	)
	api.renderAuthPage(w, r, PageRegister, http.StatusOK, AuthPageData{Alert: AlertRegisterSubmit, Form: RegisterForm{}})
}
