// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"costeo/internal/core"
	"costeo/internal/ledger"
)

// ExportPublisher announces a transaction that needs to reach the
// export queue. The AMQP client satisfies it.
type ExportPublisher interface {
	PublishTransactionExport(ctx context.Context, id uuid.UUID) error
}

// TransactionService orchestrates transaction writes across the store
// and the export queue.
type TransactionService struct {
	store     ledger.TransactionStore
	publisher ExportPublisher
}

func NewTransactionService(store ledger.TransactionStore, publisher ExportPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// CreateTransaction validates and saves a transaction, then publishes
// an export message. Publish failures are logged but never fail the
// request, the worker picks pending rows up on its own schedule.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishExport(ctx, tx.ID)

	return tx, nil
}

// UpdateTransaction validates and updates a transaction, resetting its
// export state so the change reaches the report sheet too.
func (s *TransactionService) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return err
	}

	s.publishExport(ctx, tx.ID)

	return nil
}

// DeleteTransaction removes a transaction from the store.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteTransaction(ctx, id)
}

func (s *TransactionService) publishExport(ctx context.Context, id uuid.UUID) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionExport(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message", "id", id, "error", err)
	}
}
