package models

import "time"

type AppSummary struct {
	ProcessName  string  `json:"process_name"`
	TotalSeconds int64   `json:"total_seconds"`
	TotalMinutes float64 `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
	EventCount   int     `json:"event_count"`
	Percentage   float64 `json:"percentage,omitempty"`
}

// CommandSummary counts dispatches of one command by one agent.
type CommandSummary struct {
	Agent      string  `json:"agent"`
	Command    string  `json:"command"`
	Count      int64   `json:"count"`
	Handled    int64   `json:"handled"`
	Denied     int64   `json:"denied"`
	Failed     int64   `json:"failed"`
	NotHandled int64   `json:"not_handled"`
	Percentage float64 `json:"percentage,omitempty"`
}

type PanelSummary struct {
	Panel string `json:"panel"`
	Count int64  `json:"count"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period        ReportPeriod     `json:"period"`
	Commands      []CommandSummary `json:"commands"`
	Panels        []PanelSummary   `json:"panels"`
	Apps          []AppSummary     `json:"apps"`
	TotalCommands int64            `json:"total_commands"`
	TotalSeconds  int64            `json:"total_seconds"`
	TotalMinutes  float64          `json:"total_minutes"`
	TotalHours    float64          `json:"total_hours"`
	Replacements  int64            `json:"replacements"`
	GeneratedAt   time.Time        `json:"generated_at"`
}
