package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(seconds int64, domain, title, category string) *Report {
	return &Report{Seconds: seconds, Domain: domain, Title: title, Category: category}
}

func TestAddWatch_AccumulatesPerTitle(t *testing.T) {
	rec := NewDailyRecord()
	rec.AddWatch(report(10, "a.com", "T1", "Long Form"))
	rec.AddWatch(report(5, "a.com", "T1", "Long Form"))

	require.Contains(t, rec.Domains, "a.com")
	assert.Equal(t, int64(15), rec.Domains["a.com"].Videos["T1"])
	assert.Equal(t, int64(15), rec.Domains["a.com"].Total)
	assert.Equal(t, int64(15), rec.Categories["Long Form"])
	assert.Equal(t, int64(0), rec.Total, "total is owned by the accounting mode")
}

func TestAddWatch_MetaIsLastWriteWins(t *testing.T) {
	rec := NewDailyRecord()
	rec.AddWatch(report(10, "a.com", "T1", "Long Form"))
	rec.AddWatch(report(5, "a.com", "T1", "Long Form (Background)"))

	assert.Equal(t, "Long Form (Background)", rec.Domains["a.com"].Meta["T1"].Category)
	assert.Equal(t, int64(10), rec.Categories["Long Form"])
	assert.Equal(t, int64(5), rec.Categories["Long Form (Background)"])
}

func TestDomain_CreatesOnce(t *testing.T) {
	rec := NewDailyRecord()
	d := rec.Domain("a.com")
	d.Total = 3
	assert.Same(t, d, rec.Domain("a.com"))
	assert.Len(t, rec.Domains, 1)
}

func TestAddTotalDedup(t *testing.T) {
	rec := NewDailyRecord()

	// first tab reports 5s ending at 1000
	assert.Equal(t, int64(5), rec.AddTotalDedup(5, 1000))
	// second tab reports the same wall-clock seconds
	assert.Equal(t, int64(0), rec.AddTotalDedup(5, 1000))
	// partially overlapping window (997, 1003]
	assert.Equal(t, int64(3), rec.AddTotalDedup(6, 1003))
	// late report for an older window changes nothing and keeps lastEpoch
	assert.Equal(t, int64(0), rec.AddTotalDedup(2, 990))

	assert.Equal(t, int64(8), rec.Total)
	require.NotNil(t, rec.LastEpoch)
	assert.Equal(t, int64(1003), *rec.LastEpoch)
}

func TestClone_IsDeep(t *testing.T) {
	epoch := int64(7)
	rec := NewDailyRecord()
	rec.Total = 1
	rec.LastEpoch = &epoch
	rec.AddWatch(report(1, "a.com", "T1", "Reels"))

	c := rec.Clone()
	c.Domains["a.com"].Videos["T1"] = 99
	c.Categories["Reels"] = 99
	*c.LastEpoch = 99

	assert.Equal(t, int64(1), rec.Domains["a.com"].Videos["T1"])
	assert.Equal(t, int64(1), rec.Categories["Reels"])
	assert.Equal(t, int64(7), *rec.LastEpoch)
}

func TestAddWatch_SaturatesInsteadOfWrapping(t *testing.T) {
	rec := NewDailyRecord()
	rec.AddWatch(&Report{Seconds: 10, Domain: "a.com", Title: "T1", Category: "Long Form"})
	rec.AddTotal(10)

	rec.AddWatch(&Report{Seconds: math.MaxInt64, Domain: "a.com", Title: "T1", Category: "Long Form"})
	rec.AddTotal(math.MaxInt64)

	assert.Equal(t, int64(math.MaxInt64), rec.Total)
	assert.Equal(t, int64(math.MaxInt64), rec.Categories["Long Form"])
	assert.Equal(t, int64(math.MaxInt64), rec.Domains["a.com"].Total)
	assert.Equal(t, int64(math.MaxInt64), rec.Domains["a.com"].Videos["T1"])
}
