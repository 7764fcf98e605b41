// Package report renders batch results for audit: a CSV file with one row per
// record, a machine-readable JSON summary, and a log summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdm-labs/matload/internal/domain"
)

// Reporter renders a batch result for audit.
type Reporter interface {
	Report(result domain.BatchResult) error
}

// csvHeader is the audit file column layout, one row per record result.
var csvHeader = []string{
	"sequence", "status", "message",
	"material_number", "material_type", "industry_sector",
	"description", "base_unit", "material_group", "price",
}

// FileReporter writes the audit CSV and summary JSON into a directory.
type FileReporter struct {
	dir    string
	logger zerolog.Logger
}

// NewFileReporter creates a reporter writing into dir, creating it if needed.
func NewFileReporter(dir string, logger zerolog.Logger) (*FileReporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report dir: %w", err)
	}
	return &FileReporter{dir: dir, logger: logger}, nil
}

// Report writes the audit files and logs the batch summary.
func (r *FileReporter) Report(result domain.BatchResult) error {
	base := fmt.Sprintf("results_%s_%s", result.Timestamp.Format("20060102_150405"), shortID(result))

	csvPath := filepath.Join(r.dir, base+".csv")
	if err := r.writeCSV(csvPath, result); err != nil {
		return err
	}
	if err := r.writeSummary(filepath.Join(r.dir, base+".json"), result); err != nil {
		return err
	}

	r.logger.Info().
		Str("batch_id", result.ID.String()).
		Str("status", string(result.Status)).
		Int("total", result.Total).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Str("audit_file", csvPath).
		Msg("batch report written")
	return nil
}

// writeCSV writes the audit file atomically (tmp file + rename) so a crash
// mid-write never leaves a truncated file that looks finished.
func (r *FileReporter) writeCSV(path string, result domain.BatchResult) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create audit file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write audit header: %w", err)
	}
	for _, rr := range result.Records {
		row := []string{
			fmt.Sprintf("%d", rr.Sequence),
			string(rr.Status),
			rr.Message,
			rr.Record.MaterialNumber,
			rr.Record.MaterialType,
			rr.Record.IndustrySector,
			rr.Record.Description,
			rr.Record.BaseUnit,
			rr.Record.MaterialGroup,
			rr.Record.Price,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write audit row %d: %w", rr.Sequence, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush audit file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close audit file: %w", err)
	}
	return os.Rename(tmp, path)
}

// summary is the machine-readable batch summary.
type summary struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// writeSummary writes the summary atomically (tmp file + rename) so a partial
// write never looks like a finished batch.
func (r *FileReporter) writeSummary(path string, result domain.BatchResult) error {
	s := summary{
		ID:        result.ID.String(),
		Status:    string(result.Status),
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Timestamp: result.Timestamp,
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return os.Rename(tmp, path)
}

func shortID(result domain.BatchResult) string {
	id := result.ID.String()
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
