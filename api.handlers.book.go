package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Fixed api failure messages, one per operation.
const (
	ErrMsgListBooks  = "Erro ao buscar livros"
	ErrMsgCreateBook = "Erro ao criar livro"
	ErrMsgUpdateBook = "Erro ao atualizar livro"
	ErrMsgDeleteBook = "Erro ao excluir livro"
	MsgBookDeleted   = "Livro excluído com sucesso"
)

// GetAllBooks godoc
// @Summary  List all books
// @Tags     books
// @Produce  json
// @Success  200 {array}  Book
// @Failure  500 {object} APIError
// @Router   /api/book [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		api.logger.Error("failed to get all books", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, ErrMsgListBooks, err))
		return
	}
	api.logger.Info("success to get all books", zap.String("request.id", requestID), zap.Int("books.total", len(books)))
	if err = WriteResponse(r.Context(), w, http.StatusOK, books); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateBook godoc
// @Summary  Create a book
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    book body     BookRequest true "Book to create"
// @Success  201  {object} Book
// @Failure  500  {object} APIError
// @Router   /api/book [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req BookRequest
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	if err := DecodeBookRequestBody(r, &req); err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, ErrMsgCreateBook, err))
		return
	}

	book, err := api.bookService.Create(r.Context(), req)
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, ErrMsgCreateBook, err))
		return
	}
	api.logger.Info("success to create book", zap.String("book.id", book.ID), zap.String("request.id", requestID))
	if err = WriteResponse(r.Context(), w, http.StatusCreated, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateBook godoc
// @Summary  Update the title and description of a book
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    id   path     string      true "Book id"
// @Param    book body     BookRequest true "Fields to overwrite"
// @Success  200  {object} Book
// @Failure  500  {object} APIError
// @Router   /api/book/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req BookRequest
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	if err := DecodeBookRequestBody(r, &req); err != nil {
		api.logger.Error("failed to update book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, ErrMsgUpdateBook, err))
		return
	}

	book, err := api.bookService.Update(r.Context(), id, req)
	if err != nil {
		api.logger.Error("failed to update book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, ErrMsgUpdateBook, err))
		return
	}
	api.logger.Info("success to update book", zap.String("book.id", id), zap.String("request.id", requestID))
	if err = WriteResponse(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteOneBook godoc
// @Summary  Delete a book
// @Tags     books
// @Produce  json
// @Param    id  path     string true "Book id"
// @Success  200 {object} APIMessage
// @Failure  500 {object} APIError
// @Router   /api/book/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	if err := api.bookService.Delete(r.Context(), id); err != nil {
		api.logger.Error("failed to delete book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, ErrMsgDeleteBook, err))
		return
	}
	api.logger.Info("success to delete book", zap.String("book.id", id), zap.String("request.id", requestID))
	if err := WriteResponse(r.Context(), w, http.StatusOK, APIMessage{Message: MsgBookDeleted}); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

func (api *APIHandler) sendError(w http.ResponseWriter, r *http.Request, errResp *APIError) {
	if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", errResp.RequestID), zap.Error(err))
	}
}
