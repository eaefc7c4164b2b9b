package reports

import (
	"fmt"
	"sort"
	"time"
)

// Granularity selects the bucket width of a recapitulation.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
	GranularityYearly  Granularity = "yearly"
)

func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityMonthly, GranularityYearly:
		return true
	}
	return false
}

// BucketKey derives the grouping key from an entry date. The key comes from
// the entry's date field, never wall-clock time.
func (g Granularity) BucketKey(date time.Time) string {
	switch g {
	case GranularityMonthly:
		return date.Format("2006-01")
	case GranularityYearly:
		return date.Format("2006")
	default:
		return date.Format("2006-01-02")
	}
}

// EntryTotals is one posted journal entry reduced to its date and totals.
type EntryTotals struct {
	Date        time.Time
	TotalDebit  int64
	TotalKredit int64
}

// RecapBucket aggregates all entries sharing one bucket key.
type RecapBucket struct {
	Key              string
	TotalDebit       int64
	TotalKredit      int64
	TransactionCount int
	IsBalanced       bool
}

// Recapitulation is the time-bucketed journal summary, buckets ascending by
// key.
type Recapitulation struct {
	Granularity Granularity
	Buckets     []RecapBucket
	TotalDebit  int64
	TotalKredit int64
}

// BuildRecapitulation groups entry totals into date buckets. The pass is pure
// aggregation with no side effects; identical input produces identical output
// regardless of call order.
func BuildRecapitulation(g Granularity, entries []EntryTotals) (Recapitulation, error) {
	if !g.Valid() {
		return Recapitulation{}, fmt.Errorf("accounting: unknown recap granularity %q", g)
	}
	byKey := make(map[string]*RecapBucket)
	keys := make([]string, 0)
	for _, e := range entries {
		key := g.BucketKey(e.Date)
		bucket, ok := byKey[key]
		if !ok {
			bucket = &RecapBucket{Key: key}
			byKey[key] = bucket
			keys = append(keys, key)
		}
		bucket.TotalDebit += e.TotalDebit
		bucket.TotalKredit += e.TotalKredit
		bucket.TransactionCount++
	}

	sort.Strings(keys)
	result := Recapitulation{Granularity: g}
	for _, key := range keys {
		bucket := byKey[key]
		bucket.IsBalanced = bucket.TotalDebit == bucket.TotalKredit
		result.Buckets = append(result.Buckets, *bucket)
		result.TotalDebit += bucket.TotalDebit
		result.TotalKredit += bucket.TotalKredit
	}
	return result, nil
}
