// Package export pushes ledger transactions to a Google Sheets report
// so owners can hand accountants a live spreadsheet instead of a dump.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"costeo/internal/core"
)

// Exporter is the sink the worker writes to.
type Exporter interface {
	ExportTransaction(ctx context.Context, tx core.Transaction) error
}

type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ Exporter = (*SheetsExporter)(nil)

// Config carries the credentials and target sheet. Either
// CredentialsJSON or CredentialsFile must be set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// NewSheetsExporter creates a Sheets client using service account
// credentials.
func NewSheetsExporter(ctx context.Context, cfg Config) (*SheetsExporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Transacciones"
	}

	credentialsJSON, err := resolveCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", sheetName)

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func resolveCredentials(cfg Config) ([]byte, error) {
	if json := strings.TrimSpace(cfg.CredentialsJSON); json != "" {
		return []byte(json), nil
	}
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing service account credentials")
}

// ExportTransaction appends one row to the report sheet.
func (e *SheetsExporter) ExportTransaction(ctx context.Context, tx core.Transaction) error {
	row := TransactionRow(tx)

	valueRange := &gsheet.ValueRange{Values: [][]any{row}}
	rangeRef := fmt.Sprintf("%s!A:F", e.sheetName)

	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rangeRef, valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append transaction row: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction to sheet",
		"id", tx.ID,
		"sheet", e.sheetName)
	return nil
}

// TransactionRow converts a transaction to the sheet row layout:
// date, type, amount, category, note, business ID.
func TransactionRow(tx core.Transaction) []any {
	categoryName := core.FallbackCategoryName
	if tx.Category != nil {
		categoryName = tx.Category.Name
	}

	txType := "Ingreso"
	if tx.Type == core.Expense {
		txType = "Gasto"
	}

	return []any{
		tx.Date.ISO(),
		txType,
		strconv.FormatFloat(tx.Amount.Units(), 'f', 2, 64),
		categoryName,
		tx.Note,
		tx.BusinessID.String(),
	}
}
