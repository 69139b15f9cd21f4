// Package returns builds simple-return series from price observations and
// aligns series pairs by date intersection.
package returns

import (
	"time"

	"github.com/sirupsen/logrus"

	"analytics-api/internal/models"
)

const dateKeyLayout = "2006-01-02"

// Point is one (date, simple return) observation
type Point struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// Series is an ordered sequence of return observations with strictly
// increasing dates. Built once per computation, immutable afterward.
type Series struct {
	points []Point
}

// NewSeries wraps pre-computed return points, dropping any out-of-order
// observations
func NewSeries(points []Point) Series {
	kept := make([]Point, 0, len(points))
	for _, p := range points {
		if len(kept) > 0 && !p.Date.After(kept[len(kept)-1].Date) {
			logrus.WithField("date", p.Date.Format(dateKeyLayout)).
				Warn("Dropping out-of-order return observation")
			continue
		}
		kept = append(kept, p)
	}
	return Series{points: kept}
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s.points)
}

// Empty reports whether the series has no observations
func (s Series) Empty() bool {
	return len(s.points) == 0
}

// Points returns a copy of the observations
func (s Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Returns returns the return values in date order
func (s Series) Returns() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Return
	}
	return out
}

// First returns the earliest observation date, zero time when empty
func (s Series) First() time.Time {
	if len(s.points) == 0 {
		return time.Time{}
	}
	return s.points[0].Date
}

// Last returns the latest observation date, zero time when empty
func (s Series) Last() time.Time {
	if len(s.points) == 0 {
		return time.Time{}
	}
	return s.points[len(s.points)-1].Date
}

// Build turns ordered (date, price) observations into a simple-return
// series: return = price_t / price_{t-1} - 1. Fewer than 2 price points
// yield an empty series, not an error. Points whose prior price is zero or
// negative are skipped and logged as invalid rather than propagated as
// NaN or infinity; the same applies to non-positive current prices and
// out-of-order dates.
func Build(prices []models.PricePoint) Series {
	if len(prices) < 2 {
		return Series{}
	}

	points := make([]Point, 0, len(prices)-1)
	prev := prices[0]

	for _, current := range prices[1:] {
		if !current.Date.After(prev.Date) {
			logrus.WithFields(logrus.Fields{
				"date": current.Date.Format(dateKeyLayout),
				"prev": prev.Date.Format(dateKeyLayout),
			}).Warn("Skipping out-of-order price observation")
			continue
		}
		if !prev.Price.IsPositive() {
			logrus.WithFields(logrus.Fields{
				"date":  prev.Date.Format(dateKeyLayout),
				"price": prev.Price.String(),
			}).Warn("Skipping return over non-positive prior price")
			prev = current
			continue
		}
		if !current.Price.IsPositive() {
			logrus.WithFields(logrus.Fields{
				"date":  current.Date.Format(dateKeyLayout),
				"price": current.Price.String(),
			}).Warn("Skipping non-positive price observation")
			continue
		}

		ratio, _ := current.Price.Div(prev.Price).Float64()
		points = append(points, Point{
			Date:   current.Date,
			Return: ratio - 1,
		})
		prev = current
	}

	return Series{points: points}
}

// Align restricts two series to their common dates, preserving order. The
// resulting pair has equal length and matching dates index by index.
func Align(a, b Series) (Series, Series) {
	byDate := make(map[string]Point, len(b.points))
	for _, p := range b.points {
		byDate[p.Date.Format(dateKeyLayout)] = p
	}

	alignedA := make([]Point, 0, len(a.points))
	alignedB := make([]Point, 0, len(a.points))
	for _, p := range a.points {
		if match, ok := byDate[p.Date.Format(dateKeyLayout)]; ok {
			alignedA = append(alignedA, p)
			alignedB = append(alignedB, match)
		}
	}

	return Series{points: alignedA}, Series{points: alignedB}
}
