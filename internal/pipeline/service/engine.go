package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"premarket-sentiment/internal/entity"
	"premarket-sentiment/internal/pipeline/config"
	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/internal/pipeline/repository"
	"premarket-sentiment/pkg/logger"
	"premarket-sentiment/pkg/telegram"
	"premarket-sentiment/pkg/utils"
)

// RunResult is the outcome of one full pipeline run.
type RunResult struct {
	Rows    []dto.PipelineRow
	Report  *ValidationReport
	CSVPath string
}

// stockOutcome carries everything one worker produced for its ticker.
type stockOutcome struct {
	ticker string
	rows   []dto.PipelineRow
	yoy    *float64
	err    error
}

// Engine orchestrates a run: fan out per stock, assemble rows per trading
// date, validate, write outputs, and optionally persist and notify.
type Engine struct {
	cfg       *config.Config
	log       *logger.Logger
	market    *MarketSeriesResolver
	headlines *HeadlineResolver
	scorer    *SentimentScorer
	validator *RowValidator
	writer    *OutputWriter
	rowRepo   repository.PipelineRowRepository // nil when no database sink
	notifier  telegram.Notifier                // nil when notifications are off
}

func NewEngine(
	cfg *config.Config,
	log *logger.Logger,
	market *MarketSeriesResolver,
	headlines *HeadlineResolver,
	scorer *SentimentScorer,
	validator *RowValidator,
	writer *OutputWriter,
	rowRepo repository.PipelineRowRepository,
	notifier telegram.Notifier,
) *Engine {
	return &Engine{
		cfg:       cfg,
		log:       log,
		market:    market,
		headlines: headlines,
		scorer:    scorer,
		validator: validator,
		writer:    writer,
		rowRepo:   rowRepo,
		notifier:  notifier,
	}
}

// Run executes the pipeline over the configured window and stock list.
// A stock whose market data cannot be fetched is skipped with an error log;
// the run itself fails only when the output cannot be written.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	start, err := utils.ParseDate(e.cfg.Pipeline.DateRange.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid date_range.start: %w", err)
	}
	end, err := utils.ParseDate(e.cfg.Pipeline.DateRange.End)
	if err != nil {
		return nil, fmt.Errorf("invalid date_range.end: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("date_range.end %s is before date_range.start %s",
			e.cfg.Pipeline.DateRange.End, e.cfg.Pipeline.DateRange.Start)
	}

	dates := utils.TradingDates(start, end)
	e.log.Info("Starting pipeline run",
		logger.IntField("stocks", len(e.cfg.Pipeline.Stocks)),
		logger.IntField("trading_dates", len(dates)),
		logger.StringField("start", e.cfg.Pipeline.DateRange.Start),
		logger.StringField("end", e.cfg.Pipeline.DateRange.End))

	outcomes := e.processStocks(ctx, dates, start, end)

	var rows []dto.PipelineRow
	growth := make(map[string]*float64, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			e.log.Error("Stock skipped",
				logger.StringField("ticker", o.ticker),
				logger.ErrorField(o.err))
			continue
		}
		rows = append(rows, o.rows...)
		growth[o.ticker] = o.yoy
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Stock < rows[j].Stock
	})

	report := e.validator.Validate(rows, len(dates)*len(e.cfg.Pipeline.Stocks))

	csvPath, err := e.writer.WriteResultCSV(rows)
	if err != nil {
		return nil, err
	}
	if err := e.writer.WriteFundamentalsAudit(growth); err != nil {
		e.log.Warn("Failed to write fundamentals audit", logger.ErrorField(err))
	}

	if e.rowRepo != nil {
		if err := e.rowRepo.SaveAll(ctx, toEntities(rows)); err != nil {
			e.log.Error("Failed to persist rows", logger.ErrorField(err))
		}
	}

	e.notifyRunSummary(len(rows), report)

	e.log.Info("Pipeline run finished",
		logger.IntField("rows", len(rows)),
		logger.StringField("csv", csvPath),
		logger.Field("validation_passed", report.Passed()))
	return &RunResult{Rows: rows, Report: report, CSVPath: csvPath}, nil
}

// processStocks fans the stock list out over a bounded worker pool.
func (e *Engine) processStocks(ctx context.Context, dates []time.Time, start, end time.Time) []stockOutcome {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sem      = make(chan struct{}, e.cfg.Pipeline.MaxConcurrent)
		outcomes = make([]stockOutcome, 0, len(e.cfg.Pipeline.Stocks))
	)

	for _, ticker := range e.cfg.Pipeline.Stocks {
		ticker := ticker
		wg.Add(1)
		sem <- struct{}{}
		utils.GoSafe(func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := e.processStock(ctx, ticker, dates, start, end)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		})
	}
	wg.Wait()
	return outcomes
}

// processStock builds the rows for one ticker: one headline and one
// sentiment per run, one market slice per trading date. Dates the exchange
// did not trade are skipped without a row.
func (e *Engine) processStock(ctx context.Context, ticker string, dates []time.Time, start, end time.Time) stockOutcome {
	series, err := e.market.LoadSeries(ctx, ticker, start, end)
	if err != nil {
		return stockOutcome{ticker: ticker, err: fmt.Errorf("failed to load price series: %w", err)}
	}
	if err := e.writer.WriteOHLCVAudit(ticker, series.Points()); err != nil {
		e.log.Warn("Failed to write OHLCV audit",
			logger.StringField("ticker", ticker), logger.ErrorField(err))
	}

	yoy, err := e.market.ComputeYoyGrowth(ctx, ticker)
	if err != nil {
		e.log.Warn("Fundamentals unavailable",
			logger.StringField("ticker", ticker), logger.ErrorField(err))
		yoy = nil
	}
	fundamentalsSrc := ""
	if yoy != nil {
		fundamentalsSrc = e.market.SourceName()
	}

	entityName := e.market.ResolveLongName(ctx, ticker)
	headline := e.headlines.Resolve(ctx, ticker, entityName)

	sentimentSrc := e.cfg.Gemini.Model
	sentiment, err := e.scorer.Score(ctx, headline.Text)
	if err != nil {
		e.log.Error("Sentiment classification failed, scoring neutral",
			logger.StringField("ticker", ticker), logger.ErrorField(err))
		sentiment = dto.SentimentResult{Label: "Neutral", Score: 0.0}
		sentimentSrc = "error"
	}

	sourceLog := dto.SourceLog(e.market.SourceName(), headline.Provenance, sentimentSrc, fundamentalsSrc)

	rows := make([]dto.PipelineRow, 0, len(dates))
	for _, date := range dates {
		priceRow, ok := series.Row(date)
		if !ok {
			continue
		}
		rows = append(rows, dto.PipelineRow{
			Date:           priceRow.Date,
			Stock:          ticker,
			PctChange:      priceRow.PctChange,
			Volume:         priceRow.Volume,
			Headline:       headline.Text,
			SentimentLabel: sentiment.Label,
			SentimentScore: sentiment.Score,
			YoYNetIncome:   yoy,
			DataSourceLog:  sourceLog,
		})
	}
	return stockOutcome{ticker: ticker, rows: rows, yoy: yoy}
}

// ValidateFile re-runs the checks against an already-written result CSV.
// An empty path validates the file from the configured output directory.
func (e *Engine) ValidateFile(path string) (*ValidationReport, error) {
	rows, err := e.writer.ReadResultCSV(path)
	if err != nil {
		return nil, err
	}

	start, err := utils.ParseDate(e.cfg.Pipeline.DateRange.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid date_range.start: %w", err)
	}
	end, err := utils.ParseDate(e.cfg.Pipeline.DateRange.End)
	if err != nil {
		return nil, fmt.Errorf("invalid date_range.end: %w", err)
	}
	expected := ExpectedRowCount(start, end, len(e.cfg.Pipeline.Stocks))
	return e.validator.Validate(rows, expected), nil
}

func (e *Engine) notifyRunSummary(rowCount int, report *ValidationReport) {
	if e.notifier == nil {
		return
	}
	msg := telegram.FormatRunSummaryMessage(utils.TimeNowIST(), rowCount, report.Summaries(), report.Passed())
	if err := e.notifier.SendMessage(msg); err != nil {
		e.log.Warn("Failed to send run summary", logger.ErrorField(err))
	}
}

func toEntities(rows []dto.PipelineRow) []entity.PipelineRow {
	out := make([]entity.PipelineRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, entity.PipelineRow{
			Date:           r.Date,
			Stock:          r.Stock,
			PctChange:      r.PctChange,
			Volume:         r.Volume,
			Headline:       r.Headline,
			SentimentLabel: r.SentimentLabel,
			SentimentScore: r.SentimentScore,
			YoYNetIncome:   r.YoYNetIncome,
			DataSourceLog:  r.DataSourceLog,
		})
	}
	return out
}
