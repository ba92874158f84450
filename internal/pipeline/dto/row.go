package dto

import (
	"fmt"
	"time"

	"premarket-sentiment/pkg/utils"
)

// PipelineRow is one assembled output row. Immutable once constructed.
type PipelineRow struct {
	Date           time.Time
	Stock          string
	PctChange      float64
	Volume         int64
	Headline       string
	SentimentLabel string
	SentimentScore float64
	YoYNetIncome   *float64 // nil when fundamentals are unavailable
	DataSourceLog  string
}

// SourceLog renders the pipe-delimited provenance string:
// market=<source>|news=<provider-or-default>|sentiment=<model-id>|fundamentals=<source-or-empty>
func SourceLog(market, news, sentiment, fundamentals string) string {
	return fmt.Sprintf("market=%s|news=%s|sentiment=%s|fundamentals=%s", market, news, sentiment, fundamentals)
}

// CSVHeader is the column order of pre_market_sentiment.csv.
var CSVHeader = []string{
	"Date", "Stock", "Pct_Change", "Volume",
	"Headline", "Sentiment_Label", "Sentiment_Score",
	"YoY_NetIncome_Pct", "Data_Source_Log",
}

// CSVRecord renders the row in CSVHeader order. Absent YoY is an empty cell.
func (r PipelineRow) CSVRecord() []string {
	yoy := ""
	if r.YoYNetIncome != nil {
		yoy = fmt.Sprintf("%.2f", *r.YoYNetIncome)
	}
	return []string{
		r.Date.Format(utils.DateLayout),
		r.Stock,
		fmt.Sprintf("%.4f", r.PctChange),
		fmt.Sprintf("%d", r.Volume),
		r.Headline,
		r.SentimentLabel,
		fmt.Sprintf("%.4f", r.SentimentScore),
		yoy,
		r.DataSourceLog,
	}
}
