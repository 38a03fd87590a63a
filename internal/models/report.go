package models

import (
	"strings"
	"watchtime/internal/classifier"

	"github.com/gookit/validate"
)

const (
	ActionLogTime = "logTime"
	UnknownTitle  = "Unknown Video"
	// MaxReportSeconds bounds a single flush to one day.
	MaxReportSeconds = 86400
)

// Report is one Sync Protocol message: seconds accumulated by a page since
// its previous flush.
type Report struct {
	Action   string `json:"action,omitempty" validate:"in:logTime"`
	Seconds  int64  `json:"seconds" validate:"required|min:1|max:86400"`
	Domain   string `json:"domain" validate:"required"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// Normalize fills the defaults a sender may leave out.
func (r *Report) Normalize() {
	if r.Action == "" {
		r.Action = ActionLogTime
	}
	r.Domain = strings.TrimSpace(r.Domain)
	if strings.TrimSpace(r.Title) == "" {
		r.Title = UnknownTitle
	}
	if r.Category == "" {
		r.Category = classifier.LongForm
	}
}

func (r *Report) Validate() error {
	v := validate.Struct(r)
	if !v.Validate() {
		return v.Errors
	}
	return nil
}
