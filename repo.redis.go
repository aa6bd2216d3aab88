package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const HBooks string = "books"

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Add inserts a new book record.
func (rs *redisBookStorage) Add(ctx context.Context, id string, book Book) error {
	book.ID = id
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, HBooks, id, bookBytes).Err()
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, HBooks, id).Result()
	if err == redis.Nil {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// Delete removes a book record based on its ID.
func (rs *redisBookStorage) Delete(ctx context.Context, id string) error {
	n, err := rs.client.HDel(ctx, HBooks, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// updateBookScript overwrites the mutable fields of a stored book in one
// step. It returns nil when the book does not exist.
var updateBookScript = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], ARGV[1])
if not current then
	return false
end
local book = cjson.decode(current)
book.title = ARGV[2]
book.description = ARGV[3]
book.updatedAt = ARGV[4]
local encoded = cjson.encode(book)
redis.call("HSET", KEYS[1], ARGV[1], encoded)
return encoded
`)

// Update overwrites title, description and update time of an existing book.
// The check and the write run server side so concurrent writers never fail
// and a concurrent deletion is not resurrected.
func (rs *redisBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	res, err := updateBookScript.Run(ctx, rs.client, []string{HBooks},
		id, book.Title, book.Description, book.UpdatedAt.Format(time.RFC3339Nano)).Text()
	if err == redis.Nil {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	var updated Book
	if err = json.Unmarshal([]byte(res), &updated); err != nil {
		return Book{}, err
	}
	return updated, nil
}

// GetAll retrieves a list of all books stored in the redis database,
// most recently created first.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	mapBooks, err := rs.client.HVals(ctx, HBooks).Result()
	if err != nil {
		return nil, err
	}
	books := []Book{}
	for _, bookJSONString := range mapBooks {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	SortBooksByCreationDesc(books)
	return books, nil
}

// SortBooksByCreationDesc orders books from the most recently created.
// Key-value stores have no ordering of their own.
func SortBooksByCreationDesc(books []Book) {
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})
}
