package catalog

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellness/internal/infra"
)

// GormCatalog keeps the catalog in Postgres.
type GormCatalog struct {
	db     *gorm.DB
	logger infra.Logger
}

func NewGormCatalog(db *gorm.DB, logger infra.Logger) *GormCatalog {
	return &GormCatalog{db: db, logger: infra.Component(logger, "catalog")}
}

// Migrate creates the catalog table and inserts the seed meals that are not
// present yet.
func (c *GormCatalog) Migrate(ctx context.Context) error {
	db := c.db.WithContext(ctx)
	if err := db.AutoMigrate(&Meal{}); err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	seed := SeedMeals()
	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "title"}}, DoNothing: true}).Create(&seed)
	if res.Error != nil {
		return fmt.Errorf("catalog: seed: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		c.logger.Info().Int64("meals", res.RowsAffected).Msg("catalog seeded")
	}
	return nil
}

func (c *GormCatalog) Filter(ctx context.Context, f Filter) (*Result, error) {
	q := c.db.WithContext(ctx).
		Where("category = ? AND cook_minutes <= ? AND kcal >= ?", f.Category, f.MaxCookTime, f.Range.Min)
	if !math.IsInf(f.Range.Max, 1) {
		q = q.Where("kcal <= ?", f.Range.Max)
	}
	var meals []Meal
	if err := q.Order("position, id").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("catalog: filter: %w", err)
	}
	return newResult(meals), nil
}
