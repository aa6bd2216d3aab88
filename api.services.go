package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrInvalidBookID is returned when an id does not have the book id format.
var ErrInvalidBookID = errors.New("invalid book id")

type BookServiceProvider interface {
	Create(ctx context.Context, req BookRequest) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, req BookRequest) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
}

type BookService struct {
	logger     *zap.Logger
	config     *Config
	clock      Clocker
	idsHandler UIDHandler
	storage    BookStorage
	queue      Queuer
	metrics    *Metrics
}

// NewBookService provides the book service. The queue is optional and
// only set when replication is enabled.
func NewBookService(logger *zap.Logger, config *Config, clock Clocker, ids UIDHandler, storage BookStorage, queue Queuer, metrics *Metrics) BookServiceProvider {
	return &BookService{
		logger:     logger,
		config:     config,
		clock:      clock,
		idsHandler: ids,
		storage:    storage,
		queue:      queue,
		metrics:    metrics,
	}
}

func (bs *BookService) strict() bool {
	return bs.config != nil && bs.config.Books.StrictValidation
}

// Create assigns the identifier and timestamps of a new book then stores it.
func (bs *BookService) Create(ctx context.Context, req BookRequest) (Book, error) {
	var book Book
	if err := ValidateCreateBookRequestBody(&req); err != nil {
		return book, err
	}
	ApplyBookRequest(&book, &req)
	if bs.strict() {
		if err := ValidateBookForm(BookForm{Title: book.Title, Description: book.Description}); err != nil {
			return book, err
		}
	}

	now := bs.clock.Now().UTC()
	book.ID = bs.idsHandler.Generate(BookIDPrefix)
	book.CreatedAt = now
	book.UpdatedAt = now

	err := bs.storage.Add(ctx, book.ID, book)
	bs.metrics.ObserveBookOperation("create", err)
	if err != nil {
		return book, err
	}
	bs.replicate(ctx, CreateQueue, book)
	return book, nil
}

func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	if !bs.idsHandler.IsValid(id, BookIDPrefix) {
		return Book{}, ErrInvalidBookID
	}
	book, err := bs.storage.GetOne(ctx, id)
	bs.metrics.ObserveBookOperation("get", err)
	return book, err
}

// Update overwrites the provided fields of an existing book. Absent
// fields keep their stored value.
func (bs *BookService) Update(ctx context.Context, id string, req BookRequest) (Book, error) {
	if !bs.idsHandler.IsValid(id, BookIDPrefix) {
		return Book{}, ErrInvalidBookID
	}

	var book Book
	if req.Title == nil || req.Description == nil {
		current, err := bs.storage.GetOne(ctx, id)
		if err != nil {
			bs.metrics.ObserveBookOperation("update", err)
			return Book{}, err
		}
		book = current
	}
	ApplyBookRequest(&book, &req)
	if bs.strict() {
		if err := ValidateBookForm(BookForm{Title: book.Title, Description: book.Description}); err != nil {
			return Book{}, err
		}
	}
	book.UpdatedAt = bs.clock.Now().UTC()

	updated, err := bs.storage.Update(ctx, id, book)
	bs.metrics.ObserveBookOperation("update", err)
	if err != nil {
		return Book{}, err
	}
	bs.replicate(ctx, UpdateQueue, updated)
	return updated, nil
}

func (bs *BookService) Delete(ctx context.Context, id string) error {
	if !bs.idsHandler.IsValid(id, BookIDPrefix) {
		return ErrInvalidBookID
	}
	err := bs.storage.Delete(ctx, id)
	bs.metrics.ObserveBookOperation("delete", err)
	if err != nil {
		return err
	}
	bs.replicate(ctx, DeleteQueue, Book{ID: id})
	return nil
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	books, err := bs.storage.GetAll(ctx)
	bs.metrics.ObserveBookOperation("list", err)
	return books, err
}

// replicate pushes a successful mutation to the backup queue. A failure
// here never fails the caller.
func (bs *BookService) replicate(ctx context.Context, qid string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}
