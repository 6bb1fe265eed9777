package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chronos_client/internal/domain"
)

// Storage persists the symbol universe and run summaries in SQLite.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (creating if needed) the SQLite database at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// pure Go driver, no cgo
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.SymbolRecord{}, &domain.RunRecord{}, &domain.KindStatRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying connection.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Symbol Operations
// ======================================================================================

// SaveSymbols replaces the stored universe with symbols, keeping their order.
func (s *Storage) SaveSymbols(symbols []string) error {
	records := make([]domain.SymbolRecord, len(symbols))
	for i, name := range symbols {
		records[i] = domain.SymbolRecord{Position: i, Name: name}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.SymbolRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 100).Error
	})
}

// LoadSymbols returns at most maxCount stored symbols in catalog order.
// homeDir and dataDir are ignored; the database path is fixed at open.
func (s *Storage) LoadSymbols(_, _ string, maxCount int) ([]string, error) {
	var records []domain.SymbolRecord
	err := s.db.Order("position").Limit(maxCount).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	symbols := make([]string, len(records))
	for i, r := range records {
		symbols[i] = r.Name
	}
	return symbols, nil
}

// CountSymbols returns the number of stored symbols.
func (s *Storage) CountSymbols() (int, error) {
	var n int64
	err := s.db.Model(&domain.SymbolRecord{}).Count(&n).Error
	return int(n), err
}

// ======================================================================================
// Run Operations
// ======================================================================================

// SaveRun stores a run summary together with its per-kind counters.
func (s *Storage) SaveRun(run *domain.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("%w: run without id", domain.ErrInvalidArgument)
	}
	return s.db.Create(run).Error
}

// GetRun retrieves a run by id
func (s *Storage) GetRun(id string) (*domain.RunRecord, error) {
	var run domain.RunRecord
	err := s.db.Preload("Kinds").First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *Storage) ListRuns(limit int) ([]domain.RunRecord, error) {
	var runs []domain.RunRecord
	err := s.db.Preload("Kinds").Order("started_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}
