package dto

import "time"

// PricePoint is one trading session in a price series. Points are ordered
// by date; adjacency is index order, not calendar order.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceRow is the market slice of one output row.
type PriceRow struct {
	Date      time.Time
	PctChange float64
	Volume    int64
}

// GetHistoryParam selects a contiguous price window for one ticker.
type GetHistoryParam struct {
	Ticker    string
	StartDate time.Time
	EndDate   time.Time
}

// YahooChartResponse mirrors the v8 chart API envelope.
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *YahooAPIError `json:"error"`
	} `json:"chart"`
}

// YahooTimeseriesResponse mirrors the fundamentals-timeseries API envelope.
type YahooTimeseriesResponse struct {
	Timeseries struct {
		Result []YahooTimeseriesResult `json:"result"`
		Error  *YahooAPIError          `json:"error"`
	} `json:"timeseries"`
}

type YahooTimeseriesResult struct {
	Meta struct {
		Type []string `json:"type"`
	} `json:"meta"`
	QuarterlyNetIncome                   []*YahooTimeseriesValue `json:"quarterlyNetIncome"`
	QuarterlyNetIncomeCommonStockholders []*YahooTimeseriesValue `json:"quarterlyNetIncomeCommonStockholders"`
}

type YahooTimeseriesValue struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue struct {
		Raw float64 `json:"raw"`
	} `json:"reportedValue"`
}

// YahooQuoteResponse mirrors the v7 quote API envelope, used for long-name
// resolution.
type YahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			LongName string `json:"longName"`
		} `json:"result"`
		Error *YahooAPIError `json:"error"`
	} `json:"quoteResponse"`
}

type YahooAPIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
