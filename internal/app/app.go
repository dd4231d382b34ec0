package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/brandpulse/okrops/internal/cache"
	"github.com/brandpulse/okrops/internal/config"
	"github.com/brandpulse/okrops/internal/db"
	"github.com/brandpulse/okrops/internal/repository"
	"github.com/brandpulse/okrops/internal/service"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	AuthService      *service.AuthService
	ObjectiveService *service.ObjectiveService
	ReferenceService *service.ReferenceService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	objectiveRepository := repository.NewObjectiveRepository(database)
	referenceRepository := repository.NewReferenceRepository(database)
	templateRepository := repository.NewTemplateRepository(database)

	// Services
	authService := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry)
	referenceService := service.NewReferenceService(referenceRepository)
	objectiveService := service.NewObjectiveService(
		objectiveRepository,
		referenceService,
		templateRepository,
		cache.NewSynchronizer(),
		cfg.DuplicateThreshold,
	)

	return &App{
		Cfg:              cfg,
		DB:               database,
		AuthService:      authService,
		ObjectiveService: objectiveService,
		ReferenceService: referenceService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
