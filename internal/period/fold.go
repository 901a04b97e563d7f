package period

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Totals maps a bucket or category label to its accumulated value. Labels
// without records are absent.
type Totals map[string]float64

// sums adds values exactly so the result does not depend on record order.
type sums map[string]decimal.Decimal

func (s sums) add(key string, v float64) {
	if key == "" {
		return
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	s[key] = s[key].Add(decimal.NewFromFloat(v))
}

func (s sums) totals() Totals {
	out := make(Totals, len(s))
	for key, sum := range s {
		out[key] = sum.InexactFloat64()
	}
	return out
}

// FoldIntoBuckets sums value per key. Records with an empty key are dropped.
func FoldIntoBuckets[T any](records []T, key func(T) string, value func(T) float64) Totals {
	acc := make(sums)
	for _, r := range records {
		acc.add(key(r), value(r))
	}
	return acc.totals()
}

// FoldByCategory sums value per category, independent of time.
func FoldByCategory[T any](records []T, category func(T) string, value func(T) float64) Totals {
	acc := make(sums)
	for _, r := range records {
		acc.add(category(r), value(r))
	}
	return acc.totals()
}

// Series aligns totals with labels; missing labels are 0.
func (t Totals) Series(labels []string) []float64 {
	series := make([]float64, len(labels))
	for i, label := range labels {
		series[i] = t[label]
	}
	return series
}

// Bucketize computes the labels of a lapse and folds records into them by
// timestamp.
func Bucketize[T any](c *Calendar, l Lapse, now time.Time, records []T, at func(T) time.Time, value func(T) float64) ([]string, Totals) {
	labels := c.BucketLabels(l, now)
	totals := FoldIntoBuckets(records, func(r T) string {
		return c.BucketKey(l, at(r), labels)
	}, value)
	return labels, totals
}
