package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(data)
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sampleBooks() []Book {
	base := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	return []Book{
		{ID: "b:00000000-0000-4000-8000-000000000101", Title: "Dune", Description: "Desert planet saga", CreatedAt: base, UpdatedAt: base},
		{ID: "b:00000000-0000-4000-8000-000000000102", Title: "Foundation", Description: "Galactic empire decline", CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
	}
}

// TestBookPage ensures the books page renders the table, its filter and its dialogs.
func TestBookPage(t *testing.T) {
	books := sampleBooks()
	api := newTestAPIHandler(t, newMemBookStorage(books...))

	t.Run("lists all books", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.BookPage(w, httptest.NewRequest(http.MethodGet, "/book", nil), nil)
		res := w.Result()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "text/html; charset=UTF-8", res.Header.Get("Content-Type"))
		body := readBody(t, res)
		assert.Contains(t, body, "Dune")
		assert.Contains(t, body, "Foundation")
		assert.Contains(t, body, "0 de 2 linha(s) selecionada(s).")
	})

	t.Run("filters by title", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.BookPage(w, httptest.NewRequest(http.MethodGet, "/book?q=du", nil), nil)
		body := readBody(t, w.Result())
		assert.Contains(t, body, "<strong>Dune</strong>")
		assert.NotContains(t, body, "<strong>Foundation</strong>")
	})

	t.Run("search keeps the selection", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.BookPage(w, httptest.NewRequest(http.MethodGet, "/book?sort=title&sel="+books[1].ID, nil), nil)
		body := readBody(t, w.Result())
		assert.Contains(t, body, `<input type="hidden" name="sort" value="title">`)
		assert.Contains(t, body, `<input type="hidden" name="sel" value="`+books[1].ID+`">`)
		assert.NotContains(t, body, `name="sel" value="`+books[0].ID+`"`)
		assert.Contains(t, body, "1 de 2 linha(s) selecionada(s).")
	})

	t.Run("shows empty message", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.BookPage(w, httptest.NewRequest(http.MethodGet, "/book?q=zzz", nil), nil)
		assert.Contains(t, readBody(t, w.Result()), "Nenhum livro encontrado.")
	})

	t.Run("opens the edit dialog filled", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.BookPage(w, httptest.NewRequest(http.MethodGet, "/book?dialog=form&id="+books[0].ID, nil), nil)
		body := readBody(t, w.Result())
		assert.Contains(t, body, "Editar Livro")
		assert.Contains(t, body, `value="Desert planet saga"`)
		assert.NotContains(t, body, "Você tem certeza absoluta?")
	})

	t.Run("opens the delete dialog", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.BookPage(w, httptest.NewRequest(http.MethodGet, "/book?dialog=delete&id="+books[1].ID, nil), nil)
		body := readBody(t, w.Result())
		assert.Contains(t, body, "Você tem certeza absoluta?")
		assert.NotContains(t, body, "Editar Livro")
	})

	t.Run("shows the deletion feedback", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.BookPage(w, httptest.NewRequest(http.MethodGet, "/book?msg=deleted&title=Dune", nil), nil)
		assert.Contains(t, readBody(t, w.Result()), "Livro &#34;Dune&#34; apagado com sucesso!")
	})
}

// TestBookPage_StorageFailure ensures a listing failure still renders the page.
func TestBookPage_StorageFailure(t *testing.T) {
	api := newTestAPIHandler(t, &MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return nil, errors.New("disk failure")
		},
	})
	w := httptest.NewRecorder()
	api.BookPage(w, httptest.NewRequest(http.MethodGet, "/book", nil), nil)
	res := w.Result()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	body := readBody(t, res)
	assert.Contains(t, body, "Erro ao buscar livros")
	assert.Contains(t, body, "Nenhum livro encontrado.")
}

// TestCreateBookForm ensures the add dialog validates, saves and redirects.
func TestCreateBookForm(t *testing.T) {
	storage := newMemBookStorage()
	api := newTestAPIHandler(t, storage)

	t.Run("should fail: short fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.CreateBookForm(w, postForm("/book", url.Values{"title": {"ab"}, "description": {"short"}}), nil)
		res := w.Result()
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		body := readBody(t, res)
		assert.Contains(t, body, "O título deve ter pelo menos 3 caracteres.")
		assert.Contains(t, body, "A descrição deve ter pelo menos 10 caracteres.")
		assert.Contains(t, body, "Adicionar Novo Livro")
		books, _ := storage.GetAll(context.Background())
		assert.Empty(t, books)
	})

	t.Run("should pass: valid fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		form := url.Values{"title": {"Hobbit"}, "description": {"A fantasy adventure novel"}, "state": {"q=hob&sort=title"}}
		api.CreateBookForm(w, postForm("/book", form), nil)
		res := w.Result()
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		loc, err := url.Parse(res.Header.Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/book", loc.Path)
		assert.Equal(t, "created", loc.Query().Get("msg"))
		assert.Equal(t, "hob", loc.Query().Get("q"))
		assert.Equal(t, "title", loc.Query().Get("sort"))

		books, _ := storage.GetAll(context.Background())
		require.Len(t, books, 1)
		assert.Equal(t, "Hobbit", books[0].Title)
	})
}

// TestCreateBookForm_SaveFailure ensures the form stays open with the save failure message.
func TestCreateBookForm_SaveFailure(t *testing.T) {
	api := newTestAPIHandler(t, &MockBookStorage{
		AddFunc: func(ctx context.Context, id string, book Book) error {
			return errors.New("disk full")
		},
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return []Book{}, nil
		},
	})
	w := httptest.NewRecorder()
	api.CreateBookForm(w, postForm("/book", url.Values{"title": {"Hobbit"}, "description": {"A fantasy adventure novel"}}), nil)
	res := w.Result()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	body := readBody(t, res)
	assert.Contains(t, body, "Ocorreu um erro ao salvar o livro.")
	assert.Contains(t, body, `value="Hobbit"`)
}

// TestUpdateBookForm ensures the edit dialog overwrites the book.
func TestUpdateBookForm(t *testing.T) {
	books := sampleBooks()
	storage := newMemBookStorage(books...)
	api := newTestAPIHandler(t, storage)

	w := httptest.NewRecorder()
	form := url.Values{"title": {"Dune Messiah"}, "description": {"Second book of the saga"}}
	api.UpdateBookForm(w, postForm("/book/"+books[0].ID, form), httprouter.Params{{Key: "id", Value: books[0].ID}})
	res := w.Result()
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Contains(t, res.Header.Get("Location"), "msg=updated")

	book, err := storage.GetOne(context.Background(), books[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", book.Title)
	assert.Equal(t, books[0].CreatedAt, book.CreatedAt)
	assert.True(t, book.UpdatedAt.After(books[0].UpdatedAt))
}

// TestDeleteBookForm ensures the delete dialog removes the book once.
func TestDeleteBookForm(t *testing.T) {
	books := sampleBooks()
	storage := newMemBookStorage(books...)
	api := newTestAPIHandler(t, storage)
	ps := httprouter.Params{{Key: "id", Value: books[0].ID}}

	w := httptest.NewRecorder()
	api.DeleteBookForm(w, postForm("/book/"+books[0].ID+"/delete", url.Values{"state": {"sel=" + books[0].ID}}), ps)
	res := w.Result()
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	loc, err := url.Parse(res.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "deleted", loc.Query().Get("msg"))
	assert.Equal(t, "Dune", loc.Query().Get("title"))
	assert.Empty(t, loc.Query()["sel"])

	w = httptest.NewRecorder()
	api.DeleteBookForm(w, postForm("/book/"+books[0].ID+"/delete", url.Values{}), ps)
	res = w.Result()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Ocorreu um erro ao deletar o livro.")
}

// TestLoginForm ensures the login form validation messages.
func TestLoginForm(t *testing.T) {
	api := newTestAPIHandler(t, newMemBookStorage())

	t.Run("renders empty form", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.LoginPage(w, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
		res := w.Result()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, readBody(t, res), "Registre-se")
	})

	t.Run("should fail: invalid fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.Login(w, postForm("/login", url.Values{"email": {"not-an-email"}}), nil)
		res := w.Result()
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		body := readBody(t, res)
		assert.Contains(t, body, "Por favor, insira um endereço de e-mail válido.")
		assert.Contains(t, body, "A senha é obrigatória.")
	})

	t.Run("should pass: valid fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.Login(w, postForm("/login", url.Values{"email": {"reader@example.com"}, "password": {"secret"}}), nil)
		res := w.Result()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		body := readBody(t, res)
		assert.Contains(t, body, "Login recebido.")
		assert.NotContains(t, body, "secret")
	})
}

// TestRegisterForm ensures the registration form validation messages.
func TestRegisterForm(t *testing.T) {
	api := newTestAPIHandler(t, newMemBookStorage())

	t.Run("should fail: mismatching passwords", func(t *testing.T) {
		w := httptest.NewRecorder()
		form := url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "password": {"123456"}, "confirmPassword": {"654321"}}
		api.Register(w, postForm("/register", form), nil)
		res := w.Result()
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		assert.Contains(t, readBody(t, res), "As senhas não coincidem.")
	})

	t.Run("should pass: valid fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		form := url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "password": {"123456"}, "confirmPassword": {"123456"}}
		api.Register(w, postForm("/register", form), nil)
		res := w.Result()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, readBody(t, res), "Cadastro recebido.")
	})
}

// TestPagesAreLoggedWithoutPassword ensures submitted passwords never reach the logs.
func TestPagesAreLoggedWithoutPassword(t *testing.T) {
	core, logs := newObservedLogger()
	api := newTestAPIHandler(t, newMemBookStorage())
	api.logger = zap.New(core)

	w := httptest.NewRecorder()
	api.Login(w, postForm("/login", url.Values{"email": {"reader@example.com"}, "password": {"s3cr3t-value"}}), nil)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "login form submitted", entry.Message)
	for _, f := range entry.Context {
		assert.NotContains(t, f.String, "s3cr3t-value")
	}
}
