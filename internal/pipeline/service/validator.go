package service

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/pkg/logger"
	"premarket-sentiment/pkg/utils"
)

// maxYoyNullRate is the highest tolerated fraction of rows with an absent
// YoY figure before the run is flagged.
const maxYoyNullRate = 1.0 / 3.0

// CheckResult is the outcome of one validation check.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

// ValidationReport aggregates the independent checks for one run. Every
// check executes regardless of earlier failures so the report always shows
// the full picture.
type ValidationReport struct {
	RowCount int
	Checks   []CheckResult
}

// Passed reports whether every check succeeded.
func (r *ValidationReport) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Summaries renders one line per check for logs and notifications.
func (r *ValidationReport) Summaries() []string {
	out := make([]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
		}
		out = append(out, fmt.Sprintf("%s %s: %s", status, c.Name, c.Message))
	}
	return out
}

// RowValidator checks an assembled result set against the fixed output
// contract before it is written or notified.
type RowValidator struct {
	log *logger.Logger
}

func NewRowValidator(log *logger.Logger) *RowValidator {
	return &RowValidator{log: log}
}

// Validate runs all checks over the rows. expectedRows is the number of
// (trading date, stock) pairs the window should have produced.
func (v *RowValidator) Validate(rows []dto.PipelineRow, expectedRows int) *ValidationReport {
	report := &ValidationReport{RowCount: len(rows)}

	report.Checks = append(report.Checks, checkRowCount(len(rows), expectedRows))
	report.Checks = append(report.Checks, checkScoreRange(rows))
	report.Checks = append(report.Checks, checkMarketFields(rows))
	report.Checks = append(report.Checks, checkYoyNullRate(rows))

	for _, c := range report.Checks {
		if c.Passed {
			v.log.Info("Validation check passed", logger.StringField("check", c.Name), logger.StringField("detail", c.Message))
		} else {
			v.log.Error("Validation check failed", logger.StringField("check", c.Name), logger.StringField("detail", c.Message))
		}
	}
	return report
}

// ExpectedRowCount is the (weekday dates) x (stocks) upper bound for a run
// window. Exchange holidays inside the window reduce the actual count, so
// callers pass the emitted-pair count when they have it.
func ExpectedRowCount(start, end time.Time, stocks int) int {
	return len(utils.TradingDates(start, end)) * stocks
}

func checkRowCount(got, want int) CheckResult {
	return CheckResult{
		Name:    "row_count",
		Passed:  got == want,
		Message: fmt.Sprintf("got %d rows, expected %d", got, want),
	}
}

func checkScoreRange(rows []dto.PipelineRow) CheckResult {
	for _, r := range rows {
		if math.IsNaN(r.SentimentScore) || r.SentimentScore < -1.0 || r.SentimentScore > 1.0 {
			return CheckResult{
				Name:    "sentiment_score_range",
				Passed:  false,
				Message: fmt.Sprintf("%s %s has score %v outside [-1, 1]", r.Date.Format(utils.DateLayout), r.Stock, r.SentimentScore),
			}
		}
	}
	return CheckResult{Name: "sentiment_score_range", Passed: true, Message: "all scores within [-1, 1]"}
}

func checkMarketFields(rows []dto.PipelineRow) CheckResult {
	for _, r := range rows {
		if math.IsNaN(r.PctChange) || math.IsInf(r.PctChange, 0) {
			return CheckResult{
				Name:    "market_fields",
				Passed:  false,
				Message: fmt.Sprintf("%s %s has invalid pct change", r.Date.Format(utils.DateLayout), r.Stock),
			}
		}
		if r.Volume < 0 {
			return CheckResult{
				Name:    "market_fields",
				Passed:  false,
				Message: fmt.Sprintf("%s %s has negative volume %d", r.Date.Format(utils.DateLayout), r.Stock, r.Volume),
			}
		}
	}
	return CheckResult{Name: "market_fields", Passed: true, Message: "no null pct change or volume"}
}

func checkYoyNullRate(rows []dto.PipelineRow) CheckResult {
	if len(rows) == 0 {
		return CheckResult{Name: "yoy_null_rate", Passed: true, Message: "no rows to check"}
	}
	nulls := 0
	for _, r := range rows {
		if r.YoYNetIncome == nil {
			nulls++
		}
	}
	rate := float64(nulls) / float64(len(rows))
	return CheckResult{
		Name:    "yoy_null_rate",
		Passed:  rate <= maxYoyNullRate,
		Message: fmt.Sprintf("%d of %d rows missing YoY growth (%.0f%%)", nulls, len(rows), rate*100),
	}
}

// ParseCSVRows converts records read back from pre_market_sentiment.csv
// into rows, so an already-written file can be re-validated offline.
func ParseCSVRows(records [][]string) ([]dto.PipelineRow, error) {
	rows := make([]dto.PipelineRow, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(dto.CSVHeader) {
			return nil, fmt.Errorf("record %d has %d fields, expected %d", i+1, len(rec), len(dto.CSVHeader))
		}
		date, err := utils.ParseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid date %q: %w", i+1, rec[0], err)
		}
		pct, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid pct change %q: %w", i+1, rec[2], err)
		}
		volume, err := strconv.ParseInt(rec[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid volume %q: %w", i+1, rec[3], err)
		}
		score, err := strconv.ParseFloat(rec[6], 64)
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid sentiment score %q: %w", i+1, rec[6], err)
		}
		var yoy *float64
		if rec[7] != "" {
			val, err := strconv.ParseFloat(rec[7], 64)
			if err != nil {
				return nil, fmt.Errorf("record %d: invalid yoy growth %q: %w", i+1, rec[7], err)
			}
			yoy = &val
		}
		rows = append(rows, dto.PipelineRow{
			Date:           date,
			Stock:          rec[1],
			PctChange:      pct,
			Volume:         volume,
			Headline:       rec[4],
			SentimentLabel: rec[5],
			SentimentScore: score,
			YoYNetIncome:   yoy,
			DataSourceLog:  rec[8],
		})
	}
	return rows, nil
}
