package models

import (
	"time"

	"gorm.io/gorm"
)

// FocusEvent is one stretch of focus on a window. Duration grows while the
// window keeps focus.
type FocusEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Timestamp     time.Time      `gorm:"not null;index" json:"timestamp"`
	ProcessName   string         `gorm:"not null;index" json:"process_name"`
	Agent         string         `gorm:"index" json:"agent,omitempty"` // empty when no agent claims the process
	WindowTitle   string         `gorm:"not null" json:"window_title"`
	WindowHandle  uint32         `json:"window_handle"`
	NewWindow     bool           `gorm:"not null;default:false" json:"new_window"`
	Duration      int64          `gorm:"not null;default:0" json:"duration"` // Duration in seconds
	IsLocked      bool           `gorm:"not null;default:false" json:"is_locked"`
	DisplayServer string         `gorm:"not null" json:"display_server"` // "x11" or "wayland"
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommandEvent records one dispatched command and how it ended.
type CommandEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RecordID    string         `gorm:"uniqueIndex;size:36" json:"record_id"`
	Timestamp   time.Time      `gorm:"not null;index" json:"timestamp"`
	Agent       string         `gorm:"not null;index" json:"agent"`
	Command     string         `gorm:"not null;index" json:"command"`
	Outcome     string         `gorm:"not null" json:"outcome"`
	ProcessName string         `json:"process_name"`
	Micros      int64          `gorm:"not null;default:0" json:"micros"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// PanelEvent records a panel request.
type PanelEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	RequestID     string         `gorm:"size:36;index" json:"request_id"`
	Timestamp     time.Time      `gorm:"not null;index" json:"timestamp"`
	Panel         string         `gorm:"not null;index" json:"panel"`
	ContextLabel  string         `json:"context_label"`
	ProcessName   string         `json:"process_name"`
	ForceShow     bool           `json:"force_show"`
	CurrentScreen bool           `json:"current_screen"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// AuditEvent is an audit trail entry, e.g. an abbreviation expansion.
type AuditEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Kind      string         `gorm:"not null;index" json:"kind"`
	Detail    string         `gorm:"not null" json:"detail"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type ErrorLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Source    string         `gorm:"index" json:"source"`
	ErrorMsg  string         `gorm:"not null" json:"error_msg"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{&FocusEvent{}, &CommandEvent{}, &PanelEvent{}, &AuditEvent{}, &ErrorLog{}}
}
