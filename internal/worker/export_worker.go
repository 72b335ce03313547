// Package worker drains the export queue into the report sheet. It
// consumes AMQP messages for near-real-time export and sweeps pending
// rows on a schedule as a backup for lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"costeo/internal/amqp"
	"costeo/internal/core"
	"costeo/internal/export"
	"costeo/internal/ledger"
)

// Store is the slice of the backend the worker needs: transaction
// lookup plus the export queue markers.
type Store interface {
	ledger.TransactionStore
	ledger.ExportQueue
}

// ExportWorker moves recorded transactions into the external report.
type ExportWorker struct {
	store     Store
	exporter  export.Exporter
	batchSize int
}

func NewExportWorker(store Store, exporter export.Exporter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes one queue message: load the
// transaction and push it to the sheet. A transaction deleted between
// publish and consume is not an error.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	slog.InfoContext(ctx, "Processing export message", "id", msg.ID, "published_at", msg.Timestamp)

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before export, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("load transaction: %w", err)
	}

	return w.exportOne(ctx, tx)
}

// ProcessPending sweeps transactions still waiting for export. This is
// the backup path for messages the queue lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.PendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.exportOne(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", tx.ID, "error", err)
		}
	}
	return nil
}

// StartupCheck drains a larger backlog once at boot, recovering from
// worker downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.PendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports on startup")
		return nil
	}

	slog.InfoContext(ctx, "Draining export backlog", "count", len(pending))

	exported, failed := 0, 0
	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.exportOne(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", tx.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) exportOne(ctx context.Context, tx core.Transaction) error {
	if err := w.exporter.ExportTransaction(ctx, tx); err != nil {
		// An export interrupted by shutdown is not a failed row; leave
		// it pending so the next sweep picks it up.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return fmt.Errorf("export transaction: %w", err)
		}
		if markErr := w.store.MarkExportError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("export transaction: %w", err)
	}

	if err := w.store.MarkExported(ctx, tx.ID); err != nil {
		// The row reached the sheet; only the marker failed. The sweep
		// will retry and the sheet append is idempotent per row ID.
		slog.ErrorContext(ctx, "Failed to mark transaction exported", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction exported", "id", tx.ID, "amount_cents", tx.Amount.Cents)
	return nil
}
