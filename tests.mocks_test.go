package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc    func(ctx context.Context, id string, book Book) error
	GetOneFunc func(ctx context.Context, id string) (Book, error)
	DeleteFunc func(ctx context.Context, id string) error
	UpdateFunc func(ctx context.Context, id string, book Book) (Book, error)
	GetAllFunc func(ctx context.Context) ([]Book, error)
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, id string, book Book) error {
	return m.AddFunc(ctx, id, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	return m.UpdateFunc(ctx, id, book)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
// equals to `2023-07-02 00:00:00 +0000 UTC` in String format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

// MockQueuer implements a fake Queuer.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, book Book) error
	PopFunc  func(ctx context.Context, qids ...string) (string, Book, error)
}

// Push mocks the behavior of pushing a book onto a queue.
func (mq *MockQueuer) Push(ctx context.Context, qid string, book Book) error {
	return mq.PushFunc(ctx, qid, book)
}

// Pop mocks the behavior of popping a book from queues.
func (mq *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return mq.PopFunc(ctx, qids...)
}

// memBookStorage is a map based BookStorage used to run handlers
// scenarios end to end without a database.
type memBookStorage struct {
	mu    sync.Mutex
	books map[string]Book
}

func newMemBookStorage(books ...Book) *memBookStorage {
	ms := &memBookStorage{books: map[string]Book{}}
	for _, b := range books {
		ms.books[b.ID] = b
	}
	return ms
}

func (ms *memBookStorage) Add(_ context.Context, id string, book Book) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	book.ID = id
	ms.books[id] = book
	return nil
}

func (ms *memBookStorage) GetOne(_ context.Context, id string) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	book, ok := ms.books[id]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	return book, nil
}

func (ms *memBookStorage) Delete(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.books[id]; !ok {
		return ErrBookNotFound
	}
	delete(ms.books, id)
	return nil
}

func (ms *memBookStorage) Update(_ context.Context, id string, book Book) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	current, ok := ms.books[id]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	current.Title = book.Title
	current.Description = book.Description
	current.UpdatedAt = book.UpdatedAt
	ms.books[id] = current
	return current, nil
}

func (ms *memBookStorage) GetAll(_ context.Context) ([]Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	books := make([]Book, 0, len(ms.books))
	for _, b := range ms.books {
		books = append(books, b)
	}
	SortBooksByCreationDesc(books)
	return books, nil
}

// sequenceUIDHandler generates ordered valid ids b:<uuid> for scenario tests.
type sequenceUIDHandler struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceUIDHandler) Generate(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s:00000000-0000-4000-8000-%012d", prefix, s.n)
}

func (s *sequenceUIDHandler) IsValid(id, prefix string) bool {
	return NewIDsHandler().IsValid(id, prefix)
}

// tickingClocker advances by one minute on each call so that
// successive creations get distinct timestamps.
type tickingClocker struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClocker() *tickingClocker {
	return &tickingClocker{now: NewMockClocker().Now()}
}

func (tc *tickingClocker) Now() time.Time {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.now = tc.now.Add(time.Minute)
	return tc.now
}

// newTestAPIHandler wires a handler over the given storage with the html pages loaded.
func newTestAPIHandler(t *testing.T, storage BookStorage) *APIHandler {
	t.Helper()
	pages, err := LoadPages()
	if err != nil {
		t.Fatalf("failed to load pages: %v", err)
	}
	config := &Config{Books: BooksConfig{PageSize: DefaultPageSize}}
	clock := newTickingClocker()
	ids := &sequenceUIDHandler{}
	bs := NewBookService(zap.NewNop(), config, clock, ids, storage, nil, nil)
	return NewAPIHandler(zap.NewNop(), config, &Statistics{started: NewMockClocker().Now()}, clock, ids, bs, pages, NewMetrics("test"))
}

// newObservedLogger returns a zap core recording entries for assertions.
func newObservedLogger() (zapcore.Core, *observer.ObservedLogs) {
	return observer.New(zapcore.DebugLevel)
}
