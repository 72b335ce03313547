package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"costeo/internal/amqp"
	"costeo/internal/core"
	"costeo/internal/memory"
)

type fakeExporter struct {
	exported []uuid.UUID
	err      error
}

func (f *fakeExporter) ExportTransaction(_ context.Context, tx core.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.exported = append(f.exported, tx.ID)
	return nil
}

func seedTransaction(t *testing.T, store *memory.Store) core.Transaction {
	t.Helper()
	tx := core.Transaction{
		ID:         uuid.New(),
		BusinessID: uuid.New(),
		Type:       core.Income,
		Amount:     core.Money{Cents: 12550},
		Date:       core.NewDate(2025, 8, 15),
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return tx
}

func TestHandleExportMessage(t *testing.T) {
	store := memory.New()
	exporter := &fakeExporter{}
	w := NewExportWorker(store, exporter, 10)

	tx := seedTransaction(t, store)

	msg := &amqp.TransactionExportMessage{ID: tx.ID, Timestamp: time.Now()}
	if err := w.HandleExportMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	if len(exporter.exported) != 1 || exporter.exported[0] != tx.ID {
		t.Fatalf("exported %v, want [%s]", exporter.exported, tx.ID)
	}

	pending, err := store.PendingExport(context.Background(), 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("got %d pending after export, want 0", len(pending))
	}
}

func TestHandleExportMessageSkipsDeletedTransaction(t *testing.T) {
	store := memory.New()
	exporter := &fakeExporter{}
	w := NewExportWorker(store, exporter, 10)

	msg := &amqp.TransactionExportMessage{ID: uuid.New(), Timestamp: time.Now()}
	if err := w.HandleExportMessage(context.Background(), msg); err != nil {
		t.Fatalf("deleted transaction should not error: %v", err)
	}
	if len(exporter.exported) != 0 {
		t.Fatalf("exporter called for missing transaction")
	}
}

func TestProcessPendingExportsBacklog(t *testing.T) {
	store := memory.New()
	exporter := &fakeExporter{}
	w := NewExportWorker(store, exporter, 10)

	for i := 0; i < 3; i++ {
		seedTransaction(t, store)
	}

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(exporter.exported) != 3 {
		t.Fatalf("exported %d, want 3", len(exporter.exported))
	}

	// A second sweep finds nothing left.
	exporter.exported = nil
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(exporter.exported) != 0 {
		t.Fatalf("second sweep exported %d, want 0", len(exporter.exported))
	}
}

func TestFailedExportIsMarkedAndNotRetriedBlindly(t *testing.T) {
	store := memory.New()
	exporter := &fakeExporter{err: errors.New("sheets unavailable")}
	w := NewExportWorker(store, exporter, 10)

	seedTransaction(t, store)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}

	// The row left the pending state so the sweep does not spin on it.
	pending, err := store.PendingExport(context.Background(), 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("got %d pending after failed export, want 0 (marked as error)", len(pending))
	}
}

func TestStartupCheckDrainsBacklog(t *testing.T) {
	store := memory.New()
	exporter := &fakeExporter{}
	w := NewExportWorker(store, exporter, 2)

	for i := 0; i < 5; i++ {
		seedTransaction(t, store)
	}

	// Startup uses a larger batch than the periodic sweep.
	if err := w.StartupCheck(context.Background()); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if len(exporter.exported) != 5 {
		t.Fatalf("exported %d, want 5", len(exporter.exported))
	}
}

func TestInterruptedExportStaysPending(t *testing.T) {
	store := memory.New()
	exporter := &fakeExporter{err: context.Canceled}
	w := NewExportWorker(store, exporter, 10)

	tx := seedTransaction(t, store)

	msg := &amqp.TransactionExportMessage{ID: tx.ID, Timestamp: time.Now()}
	if err := w.HandleExportMessage(context.Background(), msg); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	// A shutdown mid-append must not flip the row to the errored state;
	// the next sweep retries it.
	pending, err := store.PendingExport(context.Background(), 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != tx.ID {
		t.Fatalf("got %d pending after interrupted export, want the row back", len(pending))
	}

	exporter.err = nil
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("retry sweep: %v", err)
	}
	if len(exporter.exported) != 1 || exporter.exported[0] != tx.ID {
		t.Fatalf("retry exported %v, want [%s]", exporter.exported, tx.ID)
	}
}

func TestProcessPendingStopsOnCancel(t *testing.T) {
	store := memory.New()
	exporter := &fakeExporter{}
	w := NewExportWorker(store, exporter, 10)

	seedTransaction(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.ProcessPending(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if len(exporter.exported) != 0 {
		t.Fatalf("exported %d after cancel, want 0", len(exporter.exported))
	}
}
