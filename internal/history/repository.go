package history

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sud/internal/models"
	"sud/internal/structures"
)

type RepositoryInterface interface {
	AddMinutes(ctx context.Context, date string, minutes int) error
	Minutes(ctx context.Context, date string) (int, error)
	Recent(ctx context.Context, days int) ([]models.DailyUsage, error)
	Before(ctx context.Context, cutoff string) ([]models.DailyUsage, error)
	DeleteBefore(ctx context.Context, cutoff string) (int64, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Repository stores one row per calendar day of usage.
type Repository struct {
	db *gorm.DB
}

// NewRepository opens the history database and runs migrations. With no
// database path configured the history feature is off and a no-op
// repository is returned.
func NewRepository(conf *structures.Config) (RepositoryInterface, error) {
	if conf.History.DBPath == "" {
		return &noopRepository{}, nil
	}

	if err := ensureDirForSQLite(conf.History.DBPath); err != nil {
		return nil, err
	}

	dbLogger := gormlogger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(conf.History.DBPath), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	if err := db.AutoMigrate(&models.DailyUsage{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history db: %w", err)
	}

	return &Repository{db: db}, nil
}

// AddMinutes adds minutes onto a day's row, creating it when missing.
// There is a single writer, the read-modify-write does not race.
func (r *Repository) AddMinutes(ctx context.Context, date string, minutes int) error {
	var row models.DailyUsage
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.DailyUsage{Date: date, Minutes: minutes}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create usage row: %w", err)
		}
		return nil
	case err != nil:
		return err
	}

	row.Minutes += minutes
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to update usage row: %w", err)
	}
	return nil
}

func (r *Repository) Minutes(ctx context.Context, date string) (int, error) {
	var row models.DailyUsage
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Minutes, nil
}

// Recent returns up to days rows, newest first.
func (r *Repository) Recent(ctx context.Context, days int) ([]models.DailyUsage, error) {
	var rows []models.DailyUsage
	if err := r.db.WithContext(ctx).Order("date DESC").Limit(days).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Before returns all rows older than the cutoff date, oldest first.
func (r *Repository) Before(ctx context.Context, cutoff string) ([]models.DailyUsage, error) {
	var rows []models.DailyUsage
	if err := r.db.WithContext(ctx).Where("date < ?", cutoff).Order("date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) DeleteBefore(ctx context.Context, cutoff string) (int64, error) {
	tx := r.db.WithContext(ctx).Where("date < ?", cutoff).Delete(&models.DailyUsage{})
	if tx.Error != nil {
		return 0, fmt.Errorf("failed to prune usage rows: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DailyUsage{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureDirForSQLite creates the parent directory for the database file.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create db dir %q: %w", dir, err)
	}
	return nil
}

// noopRepository is used when no database path is configured.
type noopRepository struct{}

func (n *noopRepository) AddMinutes(_ context.Context, _ string, _ int) error { return nil }
func (n *noopRepository) Minutes(_ context.Context, _ string) (int, error)    { return 0, nil }
func (n *noopRepository) Recent(_ context.Context, _ int) ([]models.DailyUsage, error) {
	return nil, nil
}
func (n *noopRepository) Before(_ context.Context, _ string) ([]models.DailyUsage, error) {
	return nil, nil
}
func (n *noopRepository) DeleteBefore(_ context.Context, _ string) (int64, error) { return 0, nil }
func (n *noopRepository) Count(_ context.Context) (int64, error)                  { return 0, nil }
func (n *noopRepository) Close() error                                            { return nil }
