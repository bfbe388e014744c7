package dataset

import (
	"slices"

	"github.com/exodash/exodash/internal/errors"
)

// FieldValue is the value of one column for one record. Numeric values are
// float64 or nil when unknown; other columns are strings.
type FieldValue struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
	Typed  bool   `json:"typed"`
}

type accessor func(Record) any

func numeric(get func(Record) float64) accessor {
	return func(r Record) any {
		if p := Nullable(get(r)); p != nil {
			return *p
		}
		return nil
	}
}

func text(get func(Record) string) accessor {
	return func(r Record) any { return get(r) }
}

var knownFields = map[string]accessor{
	ColName:         text(func(r Record) string { return r.Name }),
	ColRadius:       numeric(func(r Record) float64 { return r.Radius }),
	ColMassEarth:    numeric(func(r Record) float64 { return r.MassEarth }),
	ColMassJupiter:  numeric(func(r Record) float64 { return r.MassJupiter }),
	ColOrbitSMA:     numeric(func(r Record) float64 { return r.OrbitSemiMajorAxis }),
	ColEqTemp:       numeric(func(r Record) float64 { return r.EquilibriumTemp }),
	ColMethod:       text(func(r Record) string { return r.DetectionMethod }),
	ColHostName:     text(func(r Record) string { return r.HostName }),
	ColSpectralType: text(func(r Record) string { return r.StellarSpectralType }),
	ColStellarTeff:  numeric(func(r Record) float64 { return r.StellarTeff }),
	ColCategory:     text(func(r Record) string { return string(r.Category) }),
}

// KnownFields lists the columns with typed accessors, sorted.
func KnownFields() []string {
	names := make([]string, 0, len(knownFields))
	for name := range knownFields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Field returns column for r. Known columns are typed; any other header
// column is returned as its raw string.
func (s *Snapshot) Field(r Record, column string) (FieldValue, error) {
	if get, ok := knownFields[column]; ok {
		return FieldValue{Column: column, Value: get(r), Typed: true}, nil
	}
	idx, ok := s.columns[column]
	if !ok || idx >= len(r.row) {
		return FieldValue{}, errors.Newf("unknown column %q", column).
			Category(errors.CategoryNotFound).
			Context("column", column).
			Build()
	}
	return FieldValue{Column: column, Value: r.row[idx]}, nil
}
