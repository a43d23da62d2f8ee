package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/adspot/adspot/internal/models"
)

// Repository handles all database operations for mute events and errors.
// Timestamps are stored in UTC so SQLite's text comparison orders them.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateMuteEvent inserts a new mute transition
func (r *Repository) CreateMuteEvent(event *models.MuteEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Timestamp = event.Timestamp.UTC()
	result := r.db.Create(event)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert mute event")
	}
	return nil
}

// GetEventsSince retrieves all mute events since a given time, oldest first
func (r *Repository) GetEventsSince(since time.Time) ([]*models.MuteEvent, error) {
	var events []*models.MuteEvent
	result := r.db.Where("timestamp >= ?", since.UTC()).Order("timestamp ASC, id ASC").Find(&events)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query mute events")
	}

	return events, nil
}

// GetRecentEvents returns up to limit events since a given time, newest first
func (r *Repository) GetRecentEvents(since time.Time, limit int) ([]*models.MuteEvent, error) {
	var events []*models.MuteEvent
	query := r.db.Where("timestamp >= ?", since.UTC()).Order("timestamp DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if result := query.Find(&events); result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query recent mute events")
	}
	return events, nil
}

// GetLatestBefore returns the newest event strictly before t, or nil
func (r *Repository) GetLatestBefore(t time.Time) (*models.MuteEvent, error) {
	var event models.MuteEvent
	result := r.db.Where("timestamp < ?", t.UTC()).Order("timestamp DESC, id DESC").First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get previous event")
	}
	return &event, nil
}

// GetLatest retrieves the most recent mute event, or nil when there is none
func (r *Repository) GetLatest() (*models.MuteEvent, error) {
	var event models.MuteEvent
	result := r.db.Order("timestamp DESC, id DESC").First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest event")
	}
	return &event, nil
}

// DeleteOldEvents deletes events older than a specified date (soft delete)
func (r *Repository) DeleteOldEvents(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before.UTC()).Delete(&models.MuteEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old events")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	if errorLog.Timestamp.IsZero() {
		errorLog.Timestamp = time.Now()
	}
	errorLog.Timestamp = errorLog.Timestamp.UTC()
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// GetErrorsSince retrieves error logs since a given time, newest first
func (r *Repository) GetErrorsSince(since time.Time) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Where("timestamp >= ?", since.UTC()).Order("timestamp DESC, id DESC").Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// CountErrorsBetween counts error logs in [start, end)
func (r *Repository) CountErrorsBetween(start, end time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.ErrorLog{}).
		Where("timestamp >= ? AND timestamp < ?", start.UTC(), end.UTC()).
		Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count error logs")
	}
	return count, nil
}

// Clear removes all mute events and error logs from the database
func (r *Repository) Clear() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM mute_events").Error; err != nil {
			return errors.Wrap(err, "failed to clear mute events")
		}
		if err := tx.Exec("DELETE FROM error_logs").Error; err != nil {
			return errors.Wrap(err, "failed to clear error logs")
		}
		return nil
	})
}
