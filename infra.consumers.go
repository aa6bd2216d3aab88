package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// popRetryDelay is the pause after a failed queue pop.
const popRetryDelay = time.Second

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// backupConsumer replays book mutations popped from the queues into a backup store.
type backupConsumer struct {
	logger     *zap.Logger
	queue      Queuer
	repo       BookStorage
	retryDelay time.Duration
}

func NewBackupConsumer(logger *zap.Logger, q Queuer, repo BookStorage) Consumer {
	return &backupConsumer{logger: logger, queue: q, repo: repo, retryDelay: popRetryDelay}
}

func (bc *backupConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, book, err := bc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			bc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			bc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			timer := time.NewTimer(bc.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				bc.logger.Info("consumer: retry wait: context is done: exit", zap.String("reason", ctx.Err().Error()))
				return nil
			case <-timer.C:
			}
			continue
		}

		bc.apply(ctx, qid, book)
	}
}

func (bc *backupConsumer) apply(ctx context.Context, qid string, book Book) {
	var err error
	switch qid {
	case CreateQueue:
		if err = bc.repo.Add(ctx, book.ID, book); err != nil {
			bc.logger.Error("consumer: failed to create", zap.String("book.id", book.ID), zap.Error(err))
		}
	case UpdateQueue:
		_, err = bc.repo.Update(ctx, book.ID, book)
		if errors.Is(err, ErrBookNotFound) {
			// backup missed the creation, keep the latest state anyway.
			err = bc.repo.Add(ctx, book.ID, book)
		}
		if err != nil {
			bc.logger.Error("consumer: failed to update", zap.String("book.id", book.ID), zap.Error(err))
		}
	case DeleteQueue:
		if err = bc.repo.Delete(ctx, book.ID); err != nil && !errors.Is(err, ErrBookNotFound) {
			bc.logger.Error("consumer: failed to delete", zap.String("book.id", book.ID), zap.Error(err))
		}
	default:
		bc.logger.Warn("consumer: received book on unknow queue id", zap.String("qid", qid), zap.String("book.id", book.ID))
	}
}
