package conditionsparser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/giygas/symptoms-api/conditionsparser/entities"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// conditionRow is the conditions table layout
type conditionRow struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"not null"`
	Symptoms     []string `gorm:"serializer:json"`
	Medications  []string `gorm:"serializer:json"`
	Instructions string
}

func (conditionRow) TableName() string { return "conditions" }

// OpenSQLite opens (and creates if needed) the SQLite database at path
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Warn("Failed to close sqlite database", "error", err)
		}
	}
}

// LoadSQLite reads the conditions table ordered by id. The file must already exist.
func LoadSQLite(ctx context.Context, path string) ([]entities.Condition, entities.LoadStats, error) {
	var stats entities.LoadStats

	if _, err := os.Stat(path); err != nil {
		return nil, stats, loadError("open "+path, err)
	}

	db, err := OpenSQLite(path)
	if err != nil {
		return nil, stats, loadError("open "+path, err)
	}
	defer closeDB(db)

	var rows []conditionRow
	if err := db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, stats, loadError("query conditions", err)
	}

	stats.Records = len(rows)
	conditions := make([]entities.Condition, 0, len(rows))
	for _, row := range rows {
		c := normalize(entities.Condition{
			Name:         row.Name,
			Symptoms:     row.Symptoms,
			Medications:  row.Medications,
			Instructions: row.Instructions,
		})
		if c.Name == "" {
			stats.Skipped++
			continue
		}
		conditions = append(conditions, c)
	}
	stats.Loaded = len(conditions)

	return conditions, stats, nil
}

// SeedSQLite replaces the conditions table content with conditions, keeping their order
func SeedSQLite(ctx context.Context, path string, conditions []entities.Condition) error {
	db, err := OpenSQLite(path)
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := db.WithContext(ctx).AutoMigrate(&conditionRow{}); err != nil {
		return fmt.Errorf("migrate conditions table: %w", err)
	}

	rows := make([]conditionRow, 0, len(conditions))
	for _, c := range conditions {
		rows = append(rows, conditionRow{
			Name:         c.Name,
			Symptoms:     c.Symptoms,
			Medications:  c.Medications,
			Instructions: c.Instructions,
		})
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&conditionRow{}).Error; err != nil {
			return fmt.Errorf("clear conditions: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("insert conditions: %w", err)
		}
		return nil
	})
}
