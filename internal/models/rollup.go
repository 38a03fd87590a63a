package models

import (
	"fmt"
	"sort"
)

// RangeSummary merges several days. Video level detail is dropped.
type RangeSummary struct {
	From       string           `json:"from,omitempty"`
	To         string           `json:"to,omitempty"`
	Days       int              `json:"days"`
	Total      int64            `json:"total"`
	Domains    map[string]int64 `json:"domains"`
	Categories map[string]int64 `json:"categories"`
}

type DomainShare struct {
	Domain  string  `json:"domain"`
	Seconds int64   `json:"seconds"`
	Percent float64 `json:"percent"`
}

// Rollup sums already decoded records. Nil entries count as empty days.
func Rollup(records []*DailyRecord) *RangeSummary {
	summary := &RangeSummary{
		Days:       len(records),
		Domains:    make(map[string]int64),
		Categories: make(map[string]int64),
	}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		summary.Total += rec.Total
		for label, seconds := range rec.Categories {
			summary.Categories[label] += seconds
		}
		for name, d := range rec.Domains {
			if d == nil {
				continue
			}
			summary.Domains[name] += d.Total
		}
	}
	return summary
}

// Breakdown lists domains by watch time, largest first, with their share of
// the summed domain time.
func (s *RangeSummary) Breakdown() []DomainShare {
	return shares(s.Domains)
}

// CategoryBreakdown is Breakdown for the category axis.
func (s *RangeSummary) CategoryBreakdown() []DomainShare {
	return shares(s.Categories)
}

func shares(m map[string]int64) []DomainShare {
	var sum int64
	out := make([]DomainShare, 0, len(m))
	for name, seconds := range m {
		sum += seconds
		out = append(out, DomainShare{Domain: name, Seconds: seconds})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds > out[j].Seconds
		}
		return out[i].Domain < out[j].Domain
	})
	if sum > 0 {
		for i := range out {
			out[i].Percent = float64(out[i].Seconds) * 100 / float64(sum)
		}
	}
	return out
}

// FormatClock renders seconds as HH:MM:SS. Hours are not wrapped at 24.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
