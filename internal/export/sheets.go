// Package export appends aggregated reports to external destinations.
// The only destination today is a Google Sheet written with a service
// account.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/subhasmitas02/SplitSmart/internal/config"
	"github.com/subhasmitas02/SplitSmart/internal/core"
)

// ReportExporter writes a finished report somewhere outside the process.
type ReportExporter interface {
	ExportReport(ctx context.Context, report *core.Report) error
}

// SheetsExporter appends report rows to a Google Sheet.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ReportExporter = (*SheetsExporter)(nil)

// NewSheetsExporter builds an exporter from the configured spreadsheet and
// service-account credentials (inline JSON preferred, file as fallback).
func NewSheetsExporter(ctx context.Context, cfg *config.Config) (*SheetsExporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentialsJSON []byte
	switch {
	case cfg.GoogleCredentialsJSON != "":
		credentialsJSON = []byte(cfg.GoogleCredentialsJSON)
	case cfg.GoogleCredentialsFile != "":
		data, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
	}, nil
}

// ExportReport appends one row per report group, prefixed by a header row
// describing the window and grouping.
func (e *SheetsExporter) ExportReport(ctx context.Context, report *core.Report) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := [][]any{
		{
			time.Now().UTC().Format(time.RFC3339),
			string(report.GroupBy),
			windowLabel(report.Window),
			report.Total.Dollars(),
		},
	}
	for _, row := range report.Rows {
		values = append(values, []any{"", row.Label, row.Total.Dollars(), row.Percentage})
	}

	rng := fmt.Sprintf("%s!A:D", e.sheetName)
	vr := &gsheet.ValueRange{Values: values}
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append report rows: %w", err)
	}

	slog.InfoContext(ctx, "Exported report to sheet",
		"spreadsheet_id", e.spreadsheetID,
		"sheet", e.sheetName,
		"rows", len(report.Rows),
		"group_by", report.GroupBy)
	return nil
}

func windowLabel(w core.TimeWindow) string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "open"
		}
		return t.Format("2006-01-02")
	}
	return format(w.From) + " .. " + format(w.To)
}
