package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mdm-labs/matload/internal/domain"
)

func sampleResult() domain.BatchResult {
	return domain.BatchResult{
		ID:        uuid.New(),
		Status:    domain.BatchCompleted,
		Total:     2,
		Succeeded: 1,
		Failed:    1,
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Records: []domain.RecordResult{
			{
				Sequence: 1,
				Status:   domain.StatusSuccess,
				Message:  "Material 10001 created successfully",
				Record:   domain.Record{MaterialType: "FERT", IndustrySector: "M", Description: "Widget", BaseUnit: "EA"},
			},
			{
				Sequence: 2,
				Status:   domain.StatusFailed,
				Message:  "Validation failed: Invalid Material Type: XX",
				Record:   domain.Record{MaterialType: "XX", IndustrySector: "M", Description: "Bad", BaseUnit: "EA"},
			},
		},
	}
}

func TestReport_WritesAuditCSV(t *testing.T) {
	dir := t.TempDir()
	r, err := NewFileReporter(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileReporter: %v", err)
	}

	if err := r.Report(sampleResult()); err != nil {
		t.Fatalf("Report: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "results_*.csv"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("audit files = %v (err %v), want one", matches, err)
	}
	if !strings.Contains(filepath.Base(matches[0]), "20260314_093000") {
		t.Errorf("file name %q missing timestamp", matches[0])
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read audit csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "sequence" || rows[0][1] != "status" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "success" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][1] != "failed" || !strings.Contains(rows[2][2], "XX") {
		t.Errorf("row 2 = %v", rows[2])
	}

	if tmps, _ := filepath.Glob(filepath.Join(dir, "*.tmp")); len(tmps) != 0 {
		t.Errorf("temp files left behind: %v", tmps)
	}
}

func TestReport_WritesSummaryJSON(t *testing.T) {
	dir := t.TempDir()
	r, err := NewFileReporter(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileReporter: %v", err)
	}

	res := sampleResult()
	if err := r.Report(res); err != nil {
		t.Fatalf("Report: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "results_*.json"))
	if len(matches) != 1 {
		t.Fatalf("summary files = %v, want one", matches)
	}

	b, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	var s summary
	if err := json.Unmarshal(b, &s); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if s.ID != res.ID.String() || s.Total != 2 || s.Succeeded != 1 || s.Failed != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.Status != "completed" {
		t.Errorf("status = %q", s.Status)
	}

	if _, err := os.Stat(matches[0] + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp summary file left behind")
	}
}

func TestNewFileReporter_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	if _, err := NewFileReporter(dir, zerolog.Nop()); err != nil {
		t.Fatalf("NewFileReporter: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("report dir not created: %v", err)
	}
}
