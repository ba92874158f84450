package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/pkg/logger"
	"premarket-sentiment/pkg/utils"
)

// ResultFileName is the primary output file of a run.
const ResultFileName = "pre_market_sentiment.csv"

// OutputWriter renders the run's result CSV and the per-stock audit files
// into the configured output directory.
type OutputWriter struct {
	dir string
	log *logger.Logger
}

func NewOutputWriter(dir string, log *logger.Logger) *OutputWriter {
	return &OutputWriter{dir: dir, log: log}
}

// WriteResultCSV writes the assembled rows, header first, and returns the
// file path.
func (w *OutputWriter) WriteResultCSV(rows []dto.PipelineRow) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(w.dir, ResultFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create result file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(dto.CSVHeader); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := cw.Write(row.CSVRecord()); err != nil {
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}

	w.log.Info("Result CSV written",
		logger.StringField("path", path),
		logger.IntField("rows", len(rows)))
	return path, nil
}

// WriteOHLCVAudit dumps the raw buffered price series for one stock so a
// reviewer can recompute any pct change by hand.
func (w *OutputWriter) WriteOHLCVAudit(ticker string, points []dto.PricePoint) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("ohlcv_%s.csv", ticker))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"Date", "Close", "Volume"}); err != nil {
		return err
	}
	for _, p := range points {
		record := []string{
			p.Date.Format(utils.DateLayout),
			fmt.Sprintf("%.4f", p.Close),
			fmt.Sprintf("%d", p.Volume),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFundamentalsAudit dumps per-stock YoY growth figures, null when the
// vendor had nothing usable.
func (w *OutputWriter) WriteFundamentalsAudit(growth map[string]*float64) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	raw, err := json.MarshalIndent(growth, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.dir, "fundamentals.json"), raw, 0o644)
}

// ReadResultCSV loads a previously written result file for re-validation.
// An empty path defaults to the writer's own output location.
func (w *OutputWriter) ReadResultCSV(path string) ([]dto.PipelineRow, error) {
	if path == "" {
		path = filepath.Join(w.dir, ResultFileName)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("result file %s is empty", path)
	}
	return ParseCSVRows(records[1:])
}
