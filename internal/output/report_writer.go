// Package output exports weekly reports as partitioned parquet or JSON files,
// locally or to a bucket.
package output

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/bentoledger/internal/ledger"
	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// ReportWriter exports one week and returns where each table went.
type ReportWriter interface {
	WriteReport(ctx context.Context, report ledger.WeeklyReport) ([]string, error)
}

func NewReportWriter(format string, dest Destination) (ReportWriter, error) {
	switch format {
	case models.ExportFormatParquet:
		return NewParquetReportWriter(dest), nil
	case models.ExportFormatJSON:
		return NewJSONReportWriter(dest), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

type ParquetReportWriter struct {
	dest     Destination
	parallel int64
}

func NewParquetReportWriter(dest Destination) *ParquetReportWriter {
	return &ParquetReportWriter{dest: dest, parallel: 4}
}

func (p *ParquetReportWriter) WriteReport(ctx context.Context, report ledger.WeeklyReport) ([]string, error) {
	weekStart := report.Week.Start()
	orders := partition(TableOrders, weekStart, "parquet")
	balances := partition(TableBalances, weekStart, "parquet")

	if err := writeParquet(ctx, p.dest, orders, p.parallel, orderRows(report)); err != nil {
		return nil, err
	}
	if err := writeParquet(ctx, p.dest, balances, p.parallel, balanceRows(report)); err != nil {
		return nil, err
	}
	return []string{p.dest.location(orders), p.dest.location(balances)}, nil
}

func writeParquet[T any](ctx context.Context, dest Destination, rel string, parallel int64, rows []T) error {
	fw, err := dest.parquetFile(ctx, rel)
	if err != nil {
		return err
	}

	pw, err := writer.NewParquetWriter(fw, new(T), parallel)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			fw.Close()
			return fmt.Errorf("failed to write %s row: %w", rel, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("failed to finish %s: %w", rel, err)
	}
	return fw.Close()
}

// JSONReportWriter writes newline-delimited JSON, one object per row.
type JSONReportWriter struct {
	dest Destination
}

func NewJSONReportWriter(dest Destination) *JSONReportWriter {
	return &JSONReportWriter{dest: dest}
}

func (j *JSONReportWriter) WriteReport(ctx context.Context, report ledger.WeeklyReport) ([]string, error) {
	weekStart := report.Week.Start()
	orders := partition(TableOrders, weekStart, "json")
	balances := partition(TableBalances, weekStart, "json")

	if err := writeJSONLines(ctx, j.dest, orders, orderRows(report)); err != nil {
		return nil, err
	}
	if err := writeJSONLines(ctx, j.dest, balances, balanceRows(report)); err != nil {
		return nil, err
	}
	return []string{j.dest.location(orders), j.dest.location(balances)}, nil
}

func writeJSONLines[T any](ctx context.Context, dest Destination, rel string, rows []T) error {
	w, err := dest.writer(ctx, rel)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			w.Close()
			return fmt.Errorf("failed to write %s row: %w", rel, err)
		}
	}
	return w.Close()
}
