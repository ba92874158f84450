package entity

import (
	"time"

	"gorm.io/gorm"
)

// PipelineRow is the persisted form of one output row.
type PipelineRow struct {
	ID             int64          `json:"id"`
	Date           time.Time      `json:"date" gorm:"type:date;not null;uniqueIndex:idx_pipeline_rows_date_stock"`
	Stock          string         `json:"stock" gorm:"not null;uniqueIndex:idx_pipeline_rows_date_stock"`
	PctChange      float64        `json:"pct_change"`
	Volume         int64          `json:"volume"`
	Headline       string         `json:"headline"`
	SentimentLabel string         `json:"sentiment_label"`
	SentimentScore float64        `json:"sentiment_score"`
	YoYNetIncome   *float64       `json:"yoy_net_income_pct" gorm:"column:yoy_net_income_pct"`
	DataSourceLog  string         `json:"data_source_log"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"deleted_at"`
}

func (PipelineRow) TableName() string {
	return "pipeline_rows"
}
