package domain

import "time"

// Request is the caller-facing set of pipeline parameters.
type Request struct {
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`
	OutputFormat string `json:"output_format" validate:"required"`
	Industry     string `json:"industry,omitempty"`
	SortBy       string `json:"sort_by,omitempty" validate:"omitempty,oneof=date price"`
}

// Params is a validated Request.
type Params struct {
	Start    time.Time
	End      time.Time
	Format   Format
	Industry string
	SortBy   SortKey
}

// StartDate returns the formatted start of the range.
func (p Params) StartDate() string { return p.Start.Format(DateLayout) }

// EndDate returns the formatted end of the range.
func (p Params) EndDate() string { return p.End.Format(DateLayout) }
