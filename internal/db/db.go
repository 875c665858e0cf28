package db

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Acterion/forum-helper/internal/models"
	"github.com/Acterion/forum-helper/internal/study"
)

var conn *gorm.DB

// Init opens (or creates) the sqlite database at path, migrates the
// schema and seeds the static rows: one zeroed counter per branch and
// the case catalog.
func Init(path string) error {
	var err error
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	conn, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := conn.AutoMigrate(
		&models.Submission{},
		&models.BranchCounter{},
		&models.Case{},
		&models.CaseResponse{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// Indexes GORM doesn't auto-create from struct tags. Completion
	// codes are unique only once issued; the blank codes on unfinished
	// submissions must not collide, hence the partial index.
	conn.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_response_submission_case ON case_responses(submission_id, case_id)")
	conn.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_submission_completion_code ON submissions(completion_code) WHERE completion_code <> ''")

	if err := seed(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	log.Info().Str("path", path).Msg("database ready (sqlite)")
	return nil
}

// seed inserts the two branch counters (zeroed) and the case catalog.
// Existing rows are left alone, so counters survive restarts.
func seed() error {
	for _, branch := range []string{models.BranchAI, models.BranchControl} {
		counter := models.BranchCounter{Branch: branch, Total: 0, SequenceCounts: models.ZeroCounts()}
		if err := conn.Where("branch = ?", branch).FirstOrCreate(&counter).Error; err != nil {
			return err
		}
	}
	for _, c := range study.Cases {
		row := c
		if err := conn.Where("id = ?", c.ID).FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func Conn() *gorm.DB {
	return conn
}
