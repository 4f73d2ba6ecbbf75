// Package preference persists small client preferences, such as the last
// selected group title, in a local sqlite file.
package preference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"leadsync/internal/shared/logger"
)

// PreferenceModel is one key/value row.
type PreferenceModel struct {
	Key       string `gorm:"column:pref_key;primaryKey;size:128"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (PreferenceModel) TableName() string {
	return "preferences"
}

type Store struct {
	db     *gorm.DB
	logger logger.Interface
}

// Open creates the database file when missing and migrates the schema.
// ":memory:" keeps everything in process.
func Open(path string, log logger.Interface) (*Store, error) {
	log = log.Named("preference")
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create preference dir: %w", err)
			}
		}
	}

	gormLog := gormlogger.New(&filteredLogger{logger: log}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&PreferenceModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate preference store: %w", err)
	}

	log.Infow("preference store opened", "path", path)
	return &Store{db: db, logger: log}, nil
}

// Get returns the stored value, empty when the key was never set.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var model PreferenceModel
	err := s.db.WithContext(ctx).Where("pref_key = ?", key).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		s.logger.Errorw("failed to get preference", "key", key, "error", err)
		return "", fmt.Errorf("failed to get preference: %w", err)
	}
	return model.Value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	model := &PreferenceModel{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pref_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		s.logger.Errorw("failed to set preference", "key", key, "error", err)
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("pref_key = ?", key).Delete(&PreferenceModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return nil
}

// List returns every stored preference keyed by name.
func (s *Store) List(ctx context.Context) (map[string]string, error) {
	var models []PreferenceModel
	if err := s.db.WithContext(ctx).Order("pref_key").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	out := make(map[string]string, len(models))
	for _, m := range models {
		out[m.Key] = m.Value
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close preference store: %w", err)
	}
	return nil
}

// filteredLogger routes gorm's printf output into the structured logger.
type filteredLogger struct {
	logger logger.Interface
}

func (l *filteredLogger) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch {
	case strings.Contains(msg, "[error]") || strings.Contains(msg, "ERROR"):
		l.logger.Errorw("preference store error", "details", msg)
	case strings.Contains(strings.ToLower(msg), "slow sql"):
		l.logger.Warnw("slow preference query", "details", msg)
	default:
		l.logger.Debugw("preference query", "details", msg)
	}
}
