// Package aggregate counts planets per category for a detection method and
// prepares the series shown in the dashboard charts.
package aggregate

import (
	"fmt"
	"slices"

	"github.com/exodash/exodash/internal/classify"
	"github.com/exodash/exodash/internal/dataset"
	"github.com/exodash/exodash/internal/errors"
)

// Entry is the count for one category.
type Entry struct {
	Category classify.Category `json:"category"`
	Label    string            `json:"label"`
	Count    int               `json:"count"`
	// Share is the percentage of the chart total, zero for unclassified.
	Share float64 `json:"share"`
}

// ShareLabel formats the share the way pie slices are labelled, e.g. "42.9%".
func (e Entry) ShareLabel() string {
	return fmt.Sprintf("%1.1f%%", e.Share)
}

// Summary holds category counts for one method.
type Summary struct {
	Method  string  `json:"method"`
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	// Chart is Entries without unclassified.
	Chart []Entry `json:"chart"`
}

// Count returns the count for c, zero if absent.
func (s Summary) Count(c classify.Category) int {
	for _, e := range s.Entries {
		if e.Category == c {
			return e.Count
		}
	}
	return 0
}

// ChartTotal is the number of planets shown in the chart.
func (s Summary) ChartTotal() int {
	n := 0
	for _, e := range s.Chart {
		n += e.Count
	}
	return n
}

// Aggregate counts records per category after filtering by method. Entries
// are ordered by descending count with ties in category order, and
// unclassified always comes last. Categories with no records are omitted.
func Aggregate(records []dataset.Record, method string) Summary {
	counts := make(map[classify.Category]int, len(classify.Categories))
	total := 0
	for i := range records {
		if method != dataset.AllMethods && records[i].DetectionMethod != method {
			continue
		}
		counts[records[i].Category]++
		total++
	}

	entries := make([]Entry, 0, len(counts))
	for c, n := range counts {
		entries = append(entries, Entry{Category: c, Label: c.Label(), Count: n})
	}
	slices.SortFunc(entries, compareEntries)

	chart := make([]Entry, 0, len(entries))
	chartTotal := 0
	for _, e := range entries {
		if e.Category != classify.Unclassified {
			chartTotal += e.Count
		}
	}
	for i := range entries {
		if entries[i].Category == classify.Unclassified {
			continue
		}
		if chartTotal > 0 {
			entries[i].Share = float64(entries[i].Count) * 100 / float64(chartTotal)
		}
		chart = append(chart, entries[i])
	}

	return Summary{
		Method:  method,
		Entries: entries,
		Total:   total,
		Chart:   chart,
	}
}

func compareEntries(a, b Entry) int {
	aUnc := a.Category == classify.Unclassified
	bUnc := b.Category == classify.Unclassified
	switch {
	case aUnc && !bUnc:
		return 1
	case bUnc && !aUnc:
		return -1
	case a.Count != b.Count:
		return b.Count - a.Count
	default:
		return a.Category.Rank() - b.Category.Rank()
	}
}

// Point is one planet in a scatter plot.
type Point struct {
	Name               string  `json:"name"`
	OrbitSemiMajorAxis float64 `json:"pl_orbsmax"`
	Radius             float64 `json:"pl_rade"`
}

// Scatter returns orbit/radius points for records in category. Records
// missing either value are left out. Unclassified planets are not plotted.
func Scatter(records []dataset.Record, category classify.Category) ([]Point, error) {
	if category == classify.Unclassified {
		return nil, errors.Newf("category %q is not plotted", category).
			Category(errors.CategoryValidation).
			Context("category", string(category)).
			Build()
	}
	if _, ok := classify.Parse(string(category)); !ok {
		return nil, errors.Newf("unknown category %q", category).
			Category(errors.CategoryValidation).
			Context("category", string(category)).
			Build()
	}

	points := []Point{}
	for i := range records {
		r := &records[i]
		if r.Category != category || !dataset.Known(r.OrbitSemiMajorAxis) || !dataset.Known(r.Radius) {
			continue
		}
		points = append(points, Point{Name: r.Name, OrbitSemiMajorAxis: r.OrbitSemiMajorAxis, Radius: r.Radius})
	}
	return points, nil
}
