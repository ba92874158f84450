package repository

import (
	"context"

	"premarket-sentiment/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type pipelineRowRepository struct {
	db *gorm.DB
}

// NewPipelineRowRepository creates the Postgres sink for emitted rows.
func NewPipelineRowRepository(db *gorm.DB) PipelineRowRepository {
	return &pipelineRowRepository{db: db}
}

// SaveAll upserts rows on (date, stock) so a re-run of the same window
// overwrites rather than duplicates.
func (r *pipelineRowRepository) SaveAll(ctx context.Context, rows []entity.PipelineRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "stock"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"pct_change", "volume", "headline", "sentiment_label",
			"sentiment_score", "yoy_net_income_pct", "data_source_log", "updated_at",
		}),
	}).Create(&rows).Error
}
