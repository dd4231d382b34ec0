package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/brandpulse/okrops/internal/model"
)

var (
	ErrTemplateNotFound = errors.New("objective template not found")
)

type TemplateRepository interface {
	ByID(tenantID, templateID string) (*model.ObjectiveTemplate, error)
	Templates(tenantID string) ([]*model.ObjectiveTemplate, error)
}

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) ByID(tenantID, templateID string) (*model.ObjectiveTemplate, error) {
	template := &model.ObjectiveTemplate{}
	query := `SELECT * FROM objective_templates WHERE id = $1 AND tenant_id = $2`

	err := r.db.Get(template, query, templateID, tenantID)
	if err == sql.ErrNoRows {
		return nil, ErrTemplateNotFound
	}

	return template, err
}

func (r *templateRepository) Templates(tenantID string) ([]*model.ObjectiveTemplate, error) {
	var templates []*model.ObjectiveTemplate
	query := `SELECT * FROM objective_templates WHERE tenant_id = $1 ORDER BY name ASC`

	err := r.db.Select(&templates, query, tenantID)
	if err != nil {
		return nil, err
	}

	return templates, nil
}
