// Package dataset parses NASA Exoplanet Archive snapshots into canonical
// planet records and serves read-only views over them.
package dataset

import (
	"encoding/json"
	"math"

	"github.com/exodash/exodash/internal/classify"
)

// Record is one canonical planet row (default_flag > 0).
// Unknown numeric values are NaN.
type Record struct {
	ID                  int
	Name                string
	Key                 string // lower-cased Name used for lookups
	Radius              float64
	MassEarth           float64
	MassJupiter         float64
	OrbitSemiMajorAxis  float64
	EquilibriumTemp     float64
	DetectionMethod     string
	HostName            string
	StellarSpectralType string
	StellarTeff         float64
	Category            classify.Category

	row []string
}

// Measurements implements classify.Measured.
func (r Record) Measurements() (radius, massEarth float64) {
	return r.Radius, r.MassEarth
}

// Row returns a copy of the original CSV cells for this record.
func (r Record) Row() []string {
	out := make([]string, len(r.row))
	copy(out, r.row)
	return out
}

// recordJSON is the wire form of a Record. Unknown numbers encode as null.
type recordJSON struct {
	ID                  int               `json:"id"`
	Name                string            `json:"name"`
	Radius              *float64          `json:"pl_rade"`
	MassEarth           *float64          `json:"pl_bmasse"`
	MassJupiter         *float64          `json:"pl_bmassj"`
	OrbitSemiMajorAxis  *float64          `json:"pl_orbsmax"`
	EquilibriumTemp     *float64          `json:"pl_eqt"`
	DetectionMethod     string            `json:"discoverymethod"`
	HostName            string            `json:"hostname"`
	StellarSpectralType string            `json:"st_spectype"`
	StellarTeff         *float64          `json:"st_teff"`
	Category            classify.Category `json:"category"`
	CategoryLabel       string            `json:"category_label"`
}

// MarshalJSON encodes the record with unknown numeric values as null.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:                  r.ID,
		Name:                r.Name,
		Radius:              Nullable(r.Radius),
		MassEarth:           Nullable(r.MassEarth),
		MassJupiter:         Nullable(r.MassJupiter),
		OrbitSemiMajorAxis:  Nullable(r.OrbitSemiMajorAxis),
		EquilibriumTemp:     Nullable(r.EquilibriumTemp),
		DetectionMethod:     r.DetectionMethod,
		HostName:            r.HostName,
		StellarSpectralType: r.StellarSpectralType,
		StellarTeff:         Nullable(r.StellarTeff),
		Category:            r.Category,
		CategoryLabel:       r.Category.Label(),
	})
}

// Nullable returns nil for NaN or infinite values.
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Known reports whether v is a usable measurement.
func Known(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
