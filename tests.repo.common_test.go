package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBookStorageSuite checks the behavior every storage driver must share.
//
//nolint:funlen
func runBookStorageSuite(t *testing.T, store BookStorage) {
	t.Helper()
	ctx := context.Background()
	created := time.Date(2023, 7, 1, 20, 19, 10, 0, time.UTC)
	testBook0ID, testBook1ID := "b:0", "b:1"
	testBook := Book{
		ID:          testBook0ID,
		Title:       "Storage test book title",
		Description: "Storage test book desc",
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	t.Run("Empty Storage", func(t *testing.T) {
		books, err := store.GetAll(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, books)
		assert.Empty(t, books)
	})

	t.Run("Add Book", func(t *testing.T) {
		err := store.Add(ctx, testBook0ID, testBook)
		assert.NoError(t, err)
	})

	t.Run("Get Existent Book", func(t *testing.T) {
		book, err := store.GetOne(ctx, testBook0ID)
		require.NoError(t, err)
		assert.Equal(t, testBook.ID, book.ID)
		assert.Equal(t, testBook.Title, book.Title)
		assert.Equal(t, testBook.Description, book.Description)
		assert.True(t, testBook.CreatedAt.Equal(book.CreatedAt))
	})

	t.Run("Get NonExistent Book", func(t *testing.T) {
		book, err := store.GetOne(ctx, testBook1ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Equal(t, Book{}, book)
	})

	t.Run("Update NonExistent Book", func(t *testing.T) {
		_, err := store.Update(ctx, testBook1ID, testBook)
		assert.ErrorIs(t, err, ErrBookNotFound)
		_, err = store.GetOne(ctx, testBook1ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Update Existent Book", func(t *testing.T) {
		changes := Book{
			ID:          "b:ignored",
			Title:       "Updated title",
			Description: "Updated description",
			CreatedAt:   created.Add(48 * time.Hour),
			UpdatedAt:   created.Add(time.Hour),
		}
		book, err := store.Update(ctx, testBook0ID, changes)
		require.NoError(t, err)
		assert.Equal(t, testBook0ID, book.ID)
		assert.Equal(t, "Updated title", book.Title)
		assert.Equal(t, "Updated description", book.Description)
		assert.True(t, created.Equal(book.CreatedAt))
		assert.True(t, changes.UpdatedAt.Equal(book.UpdatedAt))

		stored, err := store.GetOne(ctx, testBook0ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated title", stored.Title)
	})

	t.Run("Get All Books Newest First", func(t *testing.T) {
		newer := testBook
		newer.ID = testBook1ID
		newer.CreatedAt = created.Add(time.Hour)
		require.NoError(t, store.Add(ctx, testBook1ID, newer))
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, testBook1ID, books[0].ID)
		assert.Equal(t, testBook0ID, books[1].ID)
	})

	t.Run("Concurrent Updates", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 40)
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := testBook0ID
				if i%2 == 1 {
					id = testBook1ID
				}
				_, err := store.Update(ctx, id, Book{
					Title:       fmt.Sprintf("Concurrent title %d", i),
					Description: "Concurrent description",
					UpdatedAt:   created.Add(time.Duration(i) * time.Minute),
				})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		for _, id := range []string{testBook0ID, testBook1ID} {
			book, err := store.GetOne(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, id, book.ID)
			assert.Contains(t, book.Title, "Concurrent title")
			assert.Equal(t, "Concurrent description", book.Description)
		}
	})

	t.Run("Delete Existent Book", func(t *testing.T) {
		err := store.Delete(ctx, testBook0ID)
		assert.NoError(t, err)
		book, err := store.GetOne(ctx, testBook0ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Equal(t, Book{}, book)
	})

	t.Run("Delete NonExistent Book", func(t *testing.T) {
		err := store.Delete(ctx, testBook0ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})
}
