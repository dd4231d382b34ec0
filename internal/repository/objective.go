package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/brandpulse/okrops/internal/model"
)

var (
	ErrObjectiveNotFound = errors.New("objective not found")
)

type ObjectiveRepository interface {
	Create(objective *model.Objective) error
	ByID(tenantID, brandID, objectiveID string) (*model.Objective, error)
	Objectives(tenantID, brandID string, activeOnly bool) ([]*model.Objective, error)
	Update(objective *model.Objective) error
	UpdateFields(tenantID, brandID string, ids []string, status *string, priority *int, category *string) (int64, error)
}

type objectiveRepository struct {
	db *sqlx.DB
}

func NewObjectiveRepository(db *sqlx.DB) ObjectiveRepository {
	return &objectiveRepository{db: db}
}

func (r *objectiveRepository) Create(objective *model.Objective) error {
	query := `INSERT INTO objectives (id, tenant_id, brand_id, title, description, target_value, current_value,
	              metric_type_id, platform_id, target_date_id, granularity, priority, category, status,
	              is_active, template_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.db.Exec(query,
		objective.ID,
		objective.TenantID,
		objective.BrandID,
		objective.Title,
		objective.Description,
		objective.TargetValue,
		objective.CurrentValue,
		objective.MetricTypeID,
		objective.PlatformID,
		objective.TargetDateID,
		objective.Granularity,
		objective.Priority,
		objective.Category,
		objective.Status,
		objective.IsActive,
		objective.TemplateID,
		objective.CreatedAt,
		objective.UpdatedAt,
	)

	return err
}

func (r *objectiveRepository) ByID(tenantID, brandID, objectiveID string) (*model.Objective, error) {
	objective := &model.Objective{}
	query := `SELECT * FROM objectives WHERE id = $1 AND tenant_id = $2 AND brand_id = $3`

	err := r.db.Get(objective, query, objectiveID, tenantID, brandID)
	if err == sql.ErrNoRows {
		return nil, ErrObjectiveNotFound
	}

	return objective, err
}

func (r *objectiveRepository) Objectives(tenantID, brandID string, activeOnly bool) ([]*model.Objective, error) {
	var objectives []*model.Objective

	query := `SELECT * FROM objectives WHERE tenant_id = $1 AND brand_id = $2`
	if activeOnly {
		query += ` AND status != '` + model.ObjectiveStatusArchived + `'`
	}
	query += ` ORDER BY updated_at DESC`

	err := r.db.Select(&objectives, query, tenantID, brandID)
	if err != nil {
		return nil, err
	}

	return objectives, nil
}

func (r *objectiveRepository) Update(objective *model.Objective) error {
	query := `UPDATE objectives
	          SET title = $1, description = $2, target_value = $3, current_value = $4, platform_id = $5,
	              target_date_id = $6, granularity = $7, priority = $8, category = $9, status = $10,
	              is_active = $11, updated_at = $12
	          WHERE id = $13 AND tenant_id = $14 AND brand_id = $15`

	result, err := r.db.Exec(query,
		objective.Title,
		objective.Description,
		objective.TargetValue,
		objective.CurrentValue,
		objective.PlatformID,
		objective.TargetDateID,
		objective.Granularity,
		objective.Priority,
		objective.Category,
		objective.Status,
		objective.IsActive,
		time.Now(),
		objective.ID,
		objective.TenantID,
		objective.BrandID,
	)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrObjectiveNotFound
	}

	return nil
}

// UpdateFields applies a planned bulk mutation to every id in one statement,
// scoped by tenant and brand. Returns the number of rows touched so the
// caller can detect ids outside the caller's scope.
func (r *objectiveRepository) UpdateFields(tenantID, brandID string, ids []string, status *string, priority *int, category *string) (int64, error) {
	var sets []string
	var args []interface{}

	if status != nil {
		sets = append(sets, "status = ?", "is_active = ?")
		args = append(args, *status, *status != model.ObjectiveStatusArchived)
	}
	if priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *priority)
	}
	if category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *category)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now())

	query := `UPDATE objectives SET ` + strings.Join(sets, ", ") +
		` WHERE tenant_id = ? AND brand_id = ? AND id IN (?)`
	args = append(args, tenantID, brandID, ids)

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return 0, err
	}

	result, err := r.db.Exec(r.db.Rebind(query), expanded...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
