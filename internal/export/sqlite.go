package export

import (
	"fmt"
	"time"

	"github.com/linuxmatters/prosody/internal/prosody"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RecordRow is one analysed (or failed) file in the prosody_records table.
// Undefined measures are stored as NULL.
type RecordRow struct {
	ID         uint      `gorm:"primaryKey"`
	BatchID    string    `gorm:"index;not null"`
	AnalysedAt time.Time `gorm:"not null"`
	Filename   string    `gorm:"index;not null"`
	F0Mean     *float64
	F0Range    *float64
	Duration   *float64
	SpeechRate *float64
	PauseMean  *float64
	RMSMean    *float64
	Jitter     *float64
	Shimmer    *float64
	Error      string `gorm:"type:text"`
}

// TableName pins the table name
func (RecordRow) TableName() string {
	return "prosody_records"
}

// SQLiteSink appends records to a SQLite database
type SQLiteSink struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates the schema
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&RecordRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Write inserts one row per result in a single transaction
func (s *SQLiteSink) Write(batchID string, analysedAt time.Time, results []prosody.Result) error {
	if len(results) == 0 {
		return nil
	}

	rows := make([]RecordRow, 0, len(results))
	for _, res := range results {
		rows = append(rows, newRecordRow(batchID, analysedAt, res))
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert records: %w", err)
		}
		return nil
	})
}

// Close releases the underlying connection
func (s *SQLiteSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newRecordRow(batchID string, analysedAt time.Time, res prosody.Result) RecordRow {
	row := RecordRow{
		BatchID:    batchID,
		AnalysedAt: analysedAt.UTC(),
		Filename:   res.Filename,
	}
	if res.Err != nil || res.Record == nil {
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		return row
	}

	rec := res.Record
	duration, rate := rec.Duration, rec.SpeechRate
	row.F0Mean = rec.F0Mean.Ptr()
	row.F0Range = rec.F0Range.Ptr()
	row.Duration = &duration
	row.SpeechRate = &rate
	row.PauseMean = rec.PauseMean.Ptr()
	row.RMSMean = rec.RMSMean.Ptr()
	if rec.Jitter != nil {
		row.Jitter = rec.Jitter.Ptr()
	}
	if rec.Shimmer != nil {
		row.Shimmer = rec.Shimmer.Ptr()
	}
	return row
}
