package models

import (
	"math"

	json "github.com/goccy/go-json"
)

// VideoMeta is the last known tag for a title. It drives UI badges only and
// never contributes to totals.
type VideoMeta struct {
	Category string `json:"category"`
}

type DomainRecord struct {
	Total  int64                `json:"total"`
	Videos map[string]int64     `json:"videos"`
	Meta   map[string]VideoMeta `json:"meta"`
}

func NewDomainRecord() *DomainRecord {
	return &DomainRecord{
		Videos: make(map[string]int64),
		Meta:   make(map[string]VideoMeta),
	}
}

// DailyRecord is the aggregate for one day-key. The aggregation engine is its
// only writer.
type DailyRecord struct {
	Total      int64                    `json:"total"`
	Domains    map[string]*DomainRecord `json:"domains"`
	Categories map[string]int64         `json:"categories"`
	LastEpoch  *int64                   `json:"lastEpoch,omitempty"`
}

func NewDailyRecord() *DailyRecord {
	return &DailyRecord{
		Domains:    make(map[string]*DomainRecord),
		Categories: make(map[string]int64),
	}
}

// Domain returns the record for name, creating it when missing.
func (r *DailyRecord) Domain(name string) *DomainRecord {
	d, ok := r.Domains[name]
	if !ok || d == nil {
		d = NewDomainRecord()
		r.Domains[name] = d
	}
	return d
}

// AddWatch merges one report into the per-category and per-domain axes.
// Total is left to the caller because its rule depends on the accounting mode.
func (r *DailyRecord) AddWatch(report *Report) {
	r.Categories[report.Category] = addSeconds(r.Categories[report.Category], report.Seconds)

	d := r.Domain(report.Domain)
	d.Total = addSeconds(d.Total, report.Seconds)
	d.Videos[report.Title] = addSeconds(d.Videos[report.Title], report.Seconds)
	d.Meta[report.Title] = VideoMeta{Category: report.Category}
}

// AddTotalDedup counts only the wall-clock seconds in (now-seconds, now] that
// lie after LastEpoch and returns how many were added.
func (r *DailyRecord) AddTotalDedup(seconds, nowEpoch int64) int64 {
	from := nowEpoch - seconds
	if r.LastEpoch != nil && *r.LastEpoch > from {
		from = *r.LastEpoch
	}
	added := nowEpoch - from
	if added < 0 {
		added = 0
	}
	r.Total = addSeconds(r.Total, added)

	last := nowEpoch
	if r.LastEpoch != nil && *r.LastEpoch > last {
		last = *r.LastEpoch
	}
	r.LastEpoch = &last
	return added
}

// AddTotal grows the day total by seconds, saturating instead of wrapping.
func (r *DailyRecord) AddTotal(seconds int64) {
	r.Total = addSeconds(r.Total, seconds)
}

// addSeconds saturates at MaxInt64 so a counter can never wrap negative.
func addSeconds(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// Encode always writes the current shape.
func (r *DailyRecord) Encode() ([]byte, error) {
	return json.Marshal(r)
}

func (r *DailyRecord) Clone() *DailyRecord {
	c := NewDailyRecord()
	c.Total = r.Total
	for k, v := range r.Categories {
		c.Categories[k] = v
	}
	for name, d := range r.Domains {
		cd := NewDomainRecord()
		cd.Total = d.Total
		for k, v := range d.Videos {
			cd.Videos[k] = v
		}
		for k, v := range d.Meta {
			cd.Meta[k] = v
		}
		c.Domains[name] = cd
	}
	if r.LastEpoch != nil {
		last := *r.LastEpoch
		c.LastEpoch = &last
	}
	return c
}
