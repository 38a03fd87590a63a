package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport_NormalizeFallbacks(t *testing.T) {
	r := &Report{Seconds: 5, Domain: " a.com ", Title: "  "}
	r.Normalize()

	assert.Equal(t, ActionLogTime, r.Action)
	assert.Equal(t, "a.com", r.Domain)
	assert.Equal(t, UnknownTitle, r.Title)
	assert.Equal(t, "Long Form", r.Category)
	assert.NoError(t, r.Validate())
}

func TestReport_NormalizeKeepsValues(t *testing.T) {
	r := &Report{Seconds: 5, Domain: "a.com", Title: "T1", Category: "Reels"}
	r.Normalize()
	assert.Equal(t, "T1", r.Title)
	assert.Equal(t, "Reels", r.Category)
}

func TestReport_Validate(t *testing.T) {
	tests := []struct {
		name string
		r    Report
		ok   bool
	}{
		{"valid", Report{Action: ActionLogTime, Seconds: 1, Domain: "a.com"}, true},
		{"zero seconds", Report{Action: ActionLogTime, Seconds: 0, Domain: "a.com"}, false},
		{"negative seconds", Report{Action: ActionLogTime, Seconds: -4, Domain: "a.com"}, false},
		{"missing domain", Report{Action: ActionLogTime, Seconds: 3}, false},
		{"wrong action", Report{Action: "ping", Seconds: 3, Domain: "a.com"}, false},
		{"one full day", Report{Action: ActionLogTime, Seconds: MaxReportSeconds, Domain: "a.com"}, true},
		{"more than a day", Report{Action: ActionLogTime, Seconds: MaxReportSeconds + 1, Domain: "a.com"}, false},
		{"max int64", Report{Action: ActionLogTime, Seconds: math.MaxInt64, Domain: "a.com"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
