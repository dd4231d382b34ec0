package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/brandpulse/okrops/internal/model"
)

// ReferenceRepository loads the lookup tables the validator resolves
// references against: metric types, platforms and target dates.
type ReferenceRepository interface {
	MetricTypes() (map[int64]model.MetricType, error)
	Platforms() (map[int64]model.Platform, error)
	TargetDates() (map[int64]model.TargetDate, error)
}

type referenceRepository struct {
	db *sqlx.DB
}

func NewReferenceRepository(db *sqlx.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) MetricTypes() (map[int64]model.MetricType, error) {
	var rows []model.MetricType
	err := r.db.Select(&rows, `SELECT * FROM metric_types ORDER BY id`)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]model.MetricType, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *referenceRepository) Platforms() (map[int64]model.Platform, error) {
	var rows []model.Platform
	err := r.db.Select(&rows, `SELECT * FROM platforms ORDER BY id`)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]model.Platform, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *referenceRepository) TargetDates() (map[int64]model.TargetDate, error) {
	var rows []model.TargetDate
	err := r.db.Select(&rows, `SELECT * FROM target_dates ORDER BY id`)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]model.TargetDate, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}
