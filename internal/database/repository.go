package database

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"appagent/internal/models"
)

// Repository handles all database operations
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateFocusEvent inserts a focus event. Process names are stored lowercase.
func (r *Repository) CreateFocusEvent(event *models.FocusEvent) error {
	event.ProcessName = strings.ToLower(event.ProcessName)
	if err := r.db.Create(event).Error; err != nil {
		return errors.Wrap(err, "failed to insert focus event")
	}
	return nil
}

// UpdateFocusDuration updates only the duration field of an event
func (r *Repository) UpdateFocusDuration(id uint, seconds int64) error {
	result := r.db.Model(&models.FocusEvent{}).Where("id = ?", id).Update("duration", seconds)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update event duration")
	}
	return nil
}

// LatestFocusEvent returns the most recent focus event, or nil when there is none.
func (r *Repository) LatestFocusEvent() (*models.FocusEvent, error) {
	var event models.FocusEvent
	err := r.db.Order("timestamp DESC").First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest event")
	}
	return &event, nil
}

func (r *Repository) FocusEventsSince(since time.Time) ([]*models.FocusEvent, error) {
	var events []*models.FocusEvent
	if err := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&events).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query focus events")
	}
	return events, nil
}

// AppSummarySince sums focus time per process.
func (r *Repository) AppSummarySince(since time.Time) ([]models.AppSummary, error) {
	var summaries []models.AppSummary
	err := r.db.Model(&models.FocusEvent{}).
		Select("process_name, SUM(duration) as total_seconds, COUNT(*) as event_count").
		Where("timestamp >= ?", since).
		Group("process_name").
		Order("total_seconds DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query app summary")
	}
	return summaries, nil
}

func (r *Repository) CreateCommandEvent(event *models.CommandEvent) error {
	event.ProcessName = strings.ToLower(event.ProcessName)
	if err := r.db.Create(event).Error; err != nil {
		return errors.Wrap(err, "failed to insert command event")
	}
	return nil
}

// RecentCommands returns up to limit command events, newest first.
func (r *Repository) RecentCommands(limit int) ([]*models.CommandEvent, error) {
	var events []*models.CommandEvent
	if err := r.db.Order("timestamp DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query command events")
	}
	return events, nil
}

// CommandSummarySince counts dispatches per agent and command, split by outcome.
func (r *Repository) CommandSummarySince(since time.Time) ([]models.CommandSummary, error) {
	var summaries []models.CommandSummary
	err := r.db.Model(&models.CommandEvent{}).
		Select(`agent, command, COUNT(*) as count,
			SUM(CASE WHEN outcome = 'handled' THEN 1 ELSE 0 END) as handled,
			SUM(CASE WHEN outcome = 'denied' THEN 1 ELSE 0 END) as denied,
			SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END) as failed,
			SUM(CASE WHEN outcome = 'not_handled' THEN 1 ELSE 0 END) as not_handled`).
		Where("timestamp >= ?", since).
		Group("agent, command").
		Order("count DESC, command ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query command summary")
	}
	return summaries, nil
}

func (r *Repository) CreatePanelEvent(event *models.PanelEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return errors.Wrap(err, "failed to insert panel event")
	}
	return nil
}

func (r *Repository) PanelSummarySince(since time.Time) ([]models.PanelSummary, error) {
	var summaries []models.PanelSummary
	err := r.db.Model(&models.PanelEvent{}).
		Select("panel, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Group("panel").
		Order("count DESC, panel ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query panel summary")
	}
	return summaries, nil
}

func (r *Repository) CreateAuditEvent(event *models.AuditEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return errors.Wrap(err, "failed to insert audit event")
	}
	return nil
}

// AuditEventsSince lists audit events of kind, or of every kind when empty.
func (r *Repository) AuditEventsSince(since time.Time, kind string) ([]*models.AuditEvent, error) {
	q := r.db.Where("timestamp >= ?", since)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var events []*models.AuditEvent
	if err := q.Order("timestamp ASC").Find(&events).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query audit events")
	}
	return events, nil
}

func (r *Repository) CountAuditEventsSince(since time.Time, kind string) (int64, error) {
	var n int64
	err := r.db.Model(&models.AuditEvent{}).
		Where("timestamp >= ? AND kind = ?", since, kind).
		Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count audit events")
	}
	return n, nil
}

func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	if err := r.db.Create(errorLog).Error; err != nil {
		return errors.Wrap(err, "failed to insert error log")
	}
	return nil
}

func (r *Repository) ErrorLogsSince(since time.Time) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	if err := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&logs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query error logs")
	}
	return logs, nil
}

var eventTables = []string{"focus_events", "command_events", "panel_events", "audit_events"}

// DeleteOldEvents soft deletes every event older than before.
func (r *Repository) DeleteOldEvents(before time.Time) (int64, error) {
	var total int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.FocusEvent{}, &models.CommandEvent{}, &models.PanelEvent{}, &models.AuditEvent{}} {
			result := tx.Where("timestamp < ?", before).Delete(m)
			if result.Error != nil {
				return result.Error
			}
			total += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete old events")
	}
	return total, nil
}

// Clear removes all events. Error logs are kept.
func (r *Repository) Clear() error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range eventTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return errors.Wrapf(err, "failed to clear %s", table)
			}
		}
		return nil
	})
}
