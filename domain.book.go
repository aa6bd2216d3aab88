package main

import (
	"context"
	"time"
)

// BookTableName is the relational table holding books.
const BookTableName = "Book"

// Book represents a book entity.
type Book struct {
	ID          string    `json:"id" gorm:"column:id;primaryKey;type:varchar(64)"`
	Title       string    `json:"title" gorm:"column:title;not null"`
	Description string    `json:"description" gorm:"column:description;not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"column:createdAt;index"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"column:updatedAt"`
}

// TableName overrides the gorm default pluralized table name.
func (Book) TableName() string {
	return BookTableName
}

// BookRequest is the body of a book creation or update request. Fields
// are pointers so an absent field can be told apart from an empty one.
type BookRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Add(ctx context.Context, id string, book Book) error
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, book Book) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
}
