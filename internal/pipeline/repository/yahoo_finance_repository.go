package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"premarket-sentiment/internal/pipeline/config"
	"premarket-sentiment/internal/pipeline/dto"
	"premarket-sentiment/pkg/logger"
	"premarket-sentiment/pkg/utils"

	"golang.org/x/time/rate"
)

const yahooSourceName = "yahoo"

// Net-income label aliases, in lookup order. Yahoo's fundamentals
// timeseries exposes each label as its own result block.
var netIncomeAliases = []string{
	"quarterlyNetIncome",
	"quarterlyNetIncomeCommonStockholders",
}

type yahooFinanceRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewYahooFinanceRepository creates a rate-limited Yahoo Finance client.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) MarketDataRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *yahooFinanceRepository) Name() string {
	return yahooSourceName
}

func (r *yahooFinanceRepository) FetchHistory(ctx context.Context, param dto.GetHistoryParam) ([]dto.PricePoint, error) {
	symbol := param.Ticker + r.cfg.YahooFinance.SymbolSuffix
	// period2 is exclusive on the chart API; push it one day past the end.
	apiURL := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		r.cfg.YahooFinance.BaseURL,
		url.PathEscape(symbol),
		param.StartDate.Unix(),
		param.EndDate.AddDate(0, 0, 1).Unix(),
	)

	body, err := r.sendRequest(ctx, apiURL)
	if err != nil {
		return nil, err
	}

	var chart dto.YahooChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("failed to decode chart response for %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		r.log.Warn("No price data returned", logger.StringField("symbol", symbol))
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var points []dto.PricePoint
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		// Missing volume is normalized to zero.
		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		day := time.Unix(ts, 0).In(utils.GetISTLocation())
		points = append(points, dto.PricePoint{
			Date:   time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
			Close:  *quote.Close[i],
			Volume: volume,
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (r *yahooFinanceRepository) FetchQuarterlyNetIncome(ctx context.Context, ticker string) (map[string]float64, error) {
	symbol := ticker + r.cfg.YahooFinance.SymbolSuffix
	now := time.Now()
	apiURL := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?symbol=%s&type=%s,%s&period1=%d&period2=%d",
		r.cfg.YahooFinance.BaseURL,
		url.PathEscape(symbol),
		url.QueryEscape(symbol),
		netIncomeAliases[0], netIncomeAliases[1],
		now.AddDate(-2, 0, 0).Unix(),
		now.Unix(),
	)

	body, err := r.sendRequest(ctx, apiURL)
	if err != nil {
		return nil, err
	}

	var ts dto.YahooTimeseriesResponse
	if err := json.Unmarshal(body, &ts); err != nil {
		return nil, fmt.Errorf("failed to decode timeseries response for %s: %w", symbol, err)
	}
	if ts.Timeseries.Error != nil {
		return nil, fmt.Errorf("timeseries API error for %s: %s", symbol, ts.Timeseries.Error.Description)
	}

	for _, alias := range netIncomeAliases {
		series := collectSeries(ts.Timeseries.Result, alias)
		if len(series) > 0 {
			return series, nil
		}
	}

	r.log.Warn("Financials lack a net income line item", logger.StringField("symbol", symbol))
	return nil, ErrNetIncomeNotFound
}

func (r *yahooFinanceRepository) FetchLongName(ctx context.Context, ticker string) (string, error) {
	symbol := ticker + r.cfg.YahooFinance.SymbolSuffix
	apiURL := fmt.Sprintf("%s/v7/finance/quote?symbols=%s",
		r.cfg.YahooFinance.BaseURL, url.QueryEscape(symbol))

	body, err := r.sendRequest(ctx, apiURL)
	if err != nil {
		return "", err
	}

	var quote dto.YahooQuoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return "", fmt.Errorf("failed to decode quote response for %s: %w", symbol, err)
	}
	if len(quote.QuoteResponse.Result) == 0 || quote.QuoteResponse.Result[0].LongName == "" {
		return "", fmt.Errorf("no long name returned for %s", symbol)
	}

	return quote.QuoteResponse.Result[0].LongName, nil
}

func (r *yahooFinanceRepository) sendRequest(ctx context.Context, apiURL string) ([]byte, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to send request to Yahoo Finance API", logger.StringField("url", apiURL), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to send request to Yahoo Finance API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.log.ErrorContext(ctx, "Non-OK response from Yahoo Finance API",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("url", apiURL))
		return nil, fmt.Errorf("yahoo finance API returned %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func collectSeries(results []dto.YahooTimeseriesResult, alias string) map[string]float64 {
	series := make(map[string]float64)
	for _, result := range results {
		if !utils.ContainsString(result.Meta.Type, alias) {
			continue
		}
		var values []*dto.YahooTimeseriesValue
		switch alias {
		case "quarterlyNetIncome":
			values = result.QuarterlyNetIncome
		case "quarterlyNetIncomeCommonStockholders":
			values = result.QuarterlyNetIncomeCommonStockholders
		}
		for _, v := range values {
			if v == nil || v.AsOfDate == "" {
				continue
			}
			series[v.AsOfDate] = v.ReportedValue.Raw
		}
	}
	if len(series) == 0 {
		return nil
	}
	return series
}
