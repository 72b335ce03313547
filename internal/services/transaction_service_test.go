package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"costeo/internal/core"
	"costeo/internal/memory"
)

type stubPublisher struct {
	published []uuid.UUID
	err       error
}

func (p *stubPublisher) PublishTransactionExport(_ context.Context, id uuid.UUID) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, id)
	return nil
}

func TestTransactionServiceCreatePublishes(t *testing.T) {
	store := memory.New()
	pub := &stubPublisher{}
	svc := NewTransactionService(store, pub)

	tx, err := svc.CreateTransaction(context.Background(), core.Transaction{
		BusinessID: uuid.New(),
		Type:       core.Income,
		Amount:     core.Money{Cents: 5000},
		Date:       core.NewDate(2024, 4, 2),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if tx.ID == uuid.Nil {
		t.Fatal("expected generated ID")
	}
	if tx.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
	if len(pub.published) != 1 || pub.published[0] != tx.ID {
		t.Fatalf("expected one publish for %s, got %v", tx.ID, pub.published)
	}

	stored, err := store.GetTransaction(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("stored transaction missing: %v", err)
	}
	if stored.Amount.Cents != 5000 {
		t.Fatalf("stored amount = %d, want 5000", stored.Amount.Cents)
	}
}

func TestTransactionServicePublishFailureIsNonFatal(t *testing.T) {
	store := memory.New()
	pub := &stubPublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub)

	tx, err := svc.CreateTransaction(context.Background(), core.Transaction{
		BusinessID: uuid.New(),
		Type:       core.Expense,
		Amount:     core.Money{Cents: 1200},
		Date:       core.NewDate(2024, 4, 3),
	})
	if err != nil {
		t.Fatalf("CreateTransaction should not fail on publish error: %v", err)
	}

	if _, err := store.GetTransaction(context.Background(), tx.ID); err != nil {
		t.Fatalf("transaction not stored: %v", err)
	}
}

func TestTransactionServiceNilPublisher(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, nil)

	_, err := svc.CreateTransaction(context.Background(), core.Transaction{
		BusinessID: uuid.New(),
		Type:       core.Income,
		Amount:     core.Money{Cents: 1},
		Date:       core.NewDate(2024, 4, 4),
	})
	if err != nil {
		t.Fatalf("CreateTransaction with nil publisher: %v", err)
	}
}

func TestTransactionServiceRejectsInvalid(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, &stubPublisher{})

	_, err := svc.CreateTransaction(context.Background(), core.Transaction{
		BusinessID: uuid.New(),
		Type:       "transfer",
		Amount:     core.Money{Cents: 100},
		Date:       core.NewDate(2024, 4, 5),
	})
	if !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}
