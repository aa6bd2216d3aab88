package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type gormBookStorage struct {
	logger *zap.Logger
	db     *gorm.DB
}

// GetSQLiteClient opens the sqlite database through gorm and ensures the book table exists.
func GetSQLiteClient(config *Config) (*gorm.DB, error) {
	if dir := filepath.Dir(config.SQLite.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database folder: %w", err)
		}
	}

	logLevel := gormlogger.Silent
	if config.SQLite.Debug {
		logLevel = gormlogger.Info
	}

	dsn := config.SQLite.FilePath + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get the database handle: %w", err)
	}
	// sqlite serializes writers, a single connection avoids busy errors.
	sqlDB.SetMaxOpenConns(1)

	if err = db.AutoMigrate(&Book{}); err != nil {
		return nil, fmt.Errorf("failed to set up %s table: %w", BookTableName, err)
	}
	return db, nil
}

// NewGormBookStorage provides an instance of orm-based book storage.
func NewGormBookStorage(logger *zap.Logger, db *gorm.DB) BookStorage {
	return &gormBookStorage{
		logger: logger,
		db:     db,
	}
}

// Add inserts a new book record.
func (gs *gormBookStorage) Add(ctx context.Context, id string, book Book) error {
	book.ID = id
	return gs.db.WithContext(ctx).Create(&book).Error
}

// GetOne retrieves a book record based on its ID.
func (gs *gormBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	err := gs.db.WithContext(ctx).Where("id = ?", id).Take(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Book{}, ErrBookNotFound
	}
	return book, err
}

// Delete removes a book record based on its ID.
func (gs *gormBookStorage) Delete(ctx context.Context, id string) error {
	result := gs.db.WithContext(ctx).Where("id = ?", id).Delete(&Book{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update overwrites title, description and update time of an existing book
// then returns the stored record. The id and creation time never change.
func (gs *gormBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	var updated Book
	err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Book{}).Where("id = ?", id).Updates(map[string]interface{}{
			"title":       book.Title,
			"description": book.Description,
			"updatedAt":   book.UpdatedAt,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookNotFound
		}
		return tx.Where("id = ?", id).Take(&updated).Error
	})
	if err != nil {
		return Book{}, err
	}
	return updated, nil
}

// GetAll retrieves all books, most recently created first.
func (gs *gormBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	books := []Book{}
	err := gs.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}, Desc: true}).
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}
