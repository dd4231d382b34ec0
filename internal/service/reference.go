package service

import (
	"github.com/brandpulse/okrops/internal/model"
	"github.com/brandpulse/okrops/internal/repository"
)

// ReferenceService resolves date, platform and metric-type references for
// validation and for the reference listing endpoints.
type ReferenceService struct {
	repo repository.ReferenceRepository
}

func NewReferenceService(repo repository.ReferenceRepository) *ReferenceService {
	return &ReferenceService{repo: repo}
}

func (s *ReferenceService) MetricTypes() (map[int64]model.MetricType, error) {
	return s.repo.MetricTypes()
}

func (s *ReferenceService) Platforms() (map[int64]model.Platform, error) {
	return s.repo.Platforms()
}

func (s *ReferenceService) TargetDates() (map[int64]model.TargetDate, error) {
	return s.repo.TargetDates()
}
