// Package report exports the booking tables to a monthly spreadsheet.
package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// DocumentSender delivers a finished report, e.g. to manager chats.
type DocumentSender interface {
	SendDocument(ctx context.Context, name string, data []byte, caption string) error
}

// Config holds configuration for the report service.
type Config struct {
	Dir           string
	ExportOnStart bool
}

// Service runs the export on the 1st of every month and on demand.
type Service struct {
	config   Config
	exporter TableExporter
	workbook func() (Workbook, error)
	sender   DocumentSender
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a report service. sender may be nil.
func NewService(cfg Config, exporter TableExporter, sender DocumentSender, logger zerolog.Logger) *Service {
	if cfg.Dir == "" {
		cfg.Dir = "data/reports"
	}
	return &Service{
		config:   cfg,
		exporter: exporter,
		workbook: newExcelWorkbook,
		sender:   sender,
		logger:   logger.With().Str("component", "report").Logger(),
		now:      time.Now,
	}
}

// Filename names the report covering the month of t, e.g. "reservations_2024-05.xlsx".
func Filename(t time.Time) string {
	return fmt.Sprintf("reservations_%s.xlsx", t.Format("2006-01"))
}

// Start runs the monthly schedule until ctx is done.
func (s *Service) Start(ctx context.Context) {
	if s.config.ExportOnStart {
		if _, err := s.ExportNow(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Failed to export report")
		}
	}

	nextRun := s.nextFirstOfMonth()
	timer := time.NewTimer(time.Until(nextRun))
	defer timer.Stop()
	s.logger.Info().Time("next_run", nextRun).Msg("Report scheduled")

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := s.ExportNow(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to export report")
			}
			nextRun = s.nextFirstOfMonth()
			timer.Reset(time.Until(nextRun))
			s.logger.Info().Time("next_run", nextRun).Msg("Report scheduled")
		}
	}
}

func (s *Service) nextFirstOfMonth() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month()+1, 1, 0, 1, 0, 0, now.Location())
}

// ExportNow builds the workbook, writes it to the report directory under the
// previous month's name and returns its path. Delivery failures still leave
// the file on disk.
func (s *Service) ExportNow(ctx context.Context) (string, error) {
	data, err := s.build(ctx)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	filename := Filename(s.now().AddDate(0, -1, 0))
	path := filepath.Join(s.config.Dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	s.logger.Info().Str("path", path).Int("bytes", len(data)).Msg("Report written")

	if s.sender != nil {
		if err := s.sender.SendDocument(ctx, filename, data, "Monthly reservations report"); err != nil {
			return path, fmt.Errorf("send document: %w", err)
		}
	}
	return path, nil
}

// build renders every exportable table into one workbook. A table that
// cannot be read is logged and left out.
func (s *Service) build(ctx context.Context) ([]byte, error) {
	tables, err := s.exporter.GetTableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}

	wb, err := s.workbook()
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	for _, table := range tables {
		data, columns, err := s.exporter.GetTableData(ctx, table)
		if err != nil {
			s.logger.Error().Err(err).Str("table", table).Msg("Failed to get table data")
			continue
		}

		rows := make([][]any, len(data))
		for i, record := range data {
			rows[i] = make([]any, len(columns))
			for j, col := range columns {
				rows[i][j] = record[col]
			}
		}
		if err := wb.WriteTable(table, columns, rows); err != nil {
			return nil, fmt.Errorf("write %s: %w", table, err)
		}
		s.logger.Debug().Str("table", table).Int("rows", len(rows)).Msg("Exported table")
	}

	var buf bytes.Buffer
	if err := wb.Save(&buf); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}
	return buf.Bytes(), nil
}
