package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"exchange_sim/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// insertBatchSize bounds the rows per INSERT statement.
const insertBatchSize = 500

// Storage persists finished runs in SQLite. It implements domain.RunRepository.
type Storage struct {
	db *gorm.DB
}

var _ domain.RunRepository = (*Storage)(nil)

// NewStorage opens (or creates) the database at path and migrates the schema.
func NewStorage(path string) (*Storage, error) {
	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Batch runs save concurrently; SQLite allows a single writer.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Auto Migration
	if err := db.AutoMigrate(&domain.RunRecord{}, &domain.EquityRecord{}, &domain.FillRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Run Operations
// ======================================================================================

// SaveRun stores a run with its equity curve and fills in one transaction.
// An empty run.ID is replaced by a new UUID.
func (s *Storage) SaveRun(ctx context.Context, run *domain.RunRecord, equity []domain.EquityRecord, fills []domain.FillRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	for i := range equity {
		equity[i].RunID = run.ID
	}
	for i := range fills {
		fills[i].RunID = run.ID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if len(equity) > 0 {
			if err := tx.CreateInBatches(equity, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert equity: %w", err)
			}
		}
		if len(fills) > 0 {
			if err := tx.CreateInBatches(fills, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert fills: %w", err)
			}
		}
		return nil
	})
}

// GetRun retrieves a run by id
func (s *Storage) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	var run domain.RunRecord
	err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs oldest first. An empty scenario lists every run.
func (s *Storage) ListRuns(ctx context.Context, scenario string) ([]domain.RunRecord, error) {
	var runs []domain.RunRecord
	q := s.db.WithContext(ctx).Order("created_at, id")
	if scenario != "" {
		q = q.Where("scenario = ?", scenario)
	}
	err := q.Find(&runs).Error
	return runs, err
}

// EquityCurve returns the equity samples of a run in step order
func (s *Storage) EquityCurve(ctx context.Context, runID string) ([]domain.EquityRecord, error) {
	var points []domain.EquityRecord
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("step, id").Find(&points).Error
	return points, err
}

// Fills returns the participant fills of a run in execution order
func (s *Storage) Fills(ctx context.Context, runID string) ([]domain.FillRecord, error) {
	var fills []domain.FillRecord
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&fills).Error
	return fills, err
}

// DeleteRun removes a run and everything recorded for it
func (s *Storage) DeleteRun(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&domain.EquityRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", id).Delete(&domain.FillRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.RunRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
		}
		return nil
	})
}
