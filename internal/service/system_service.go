package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/database"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/model"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	store *repository.Store
}

// NewSystemService creates a new SystemService
func NewSystemService(store *repository.Store) *SystemService {
	return &SystemService{
		store: store,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth(ctx context.Context) error {
	return database.HealthCheck(ctx, s.store.DB())
}

// CheckVersion reports the application version and the applied schema version.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	dbVersion, err := database.Version(ctx, string(s.store.Dialect()), s.store.DB())
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("failed to read database version: %w", err)
	}
	return model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  strconv.FormatInt(dbVersion, 10),
		Features: map[string]bool{
			"dividend_resume":   true,
			"postgres":          s.store.Dialect() == repository.DialectPostgres,
			"withdrawal_limits": true,
		},
	}, nil
}
