// Package classify assigns exoplanets to size/mass categories.
//
// Radius is in Earth radii and mass in Earth masses. Rules are evaluated
// in order and the first matching rule wins, so a planet whose radius and
// mass point to different categories lands in the larger one. Unknown
// values are NaN and never satisfy a comparison.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a planet size/mass class.
type Category string

const (
	GasGiant     Category = "gas_giant"
	IceGiant     Category = "ice_giant"
	SuperEarth   Category = "super_earth"
	Terrestrial  Category = "terrestrial"
	Unclassified Category = "unclassified"
)

// Categories lists every category in rule order. Unclassified is last.
var Categories = []Category{GasGiant, IceGiant, SuperEarth, Terrestrial, Unclassified}

// Rule boundaries.
const (
	GasGiantMinRadius = 4.5
	GasGiantMinMass   = 159.0

	IceGiantMinRadius = 2.1
	IceGiantMinMass   = 10.0

	SuperEarthMinRadius = 1.0
	SuperEarthMinMass   = 1.0

	TerrestrialMinRadius = 0.1
	TerrestrialMinMass   = 0.1
)

// Classify returns the category for a planet with the given radius and mass.
func Classify(radius, massEarth float64) Category {
	switch {
	case radius > GasGiantMinRadius || massEarth >= GasGiantMinMass:
		return GasGiant
	case (radius > IceGiantMinRadius && radius <= GasGiantMinRadius) ||
		(massEarth >= IceGiantMinMass && massEarth < GasGiantMinMass):
		return IceGiant
	case (radius > SuperEarthMinRadius && radius <= IceGiantMinRadius) ||
		(massEarth >= SuperEarthMinMass && massEarth < IceGiantMinMass):
		return SuperEarth
	case (radius > TerrestrialMinRadius && radius <= SuperEarthMinRadius) ||
		(massEarth > TerrestrialMinMass && massEarth < SuperEarthMinMass):
		return Terrestrial
	default:
		return Unclassified
	}
}

// Measured is anything that carries a radius and an Earth mass.
type Measured interface {
	Measurements() (radius, massEarth float64)
}

// ClassifyAll classifies each item independently. The result is index
// aligned with items.
func ClassifyAll[T Measured](items []T) []Category {
	out := make([]Category, len(items))
	for i, item := range items {
		out[i] = Classify(item.Measurements())
	}
	return out
}

// Parse returns the category with the given name.
func Parse(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Label returns the display label, e.g. "Gas Giant".
func (c Category) Label() string {
	// Casers keep state, so one per call.
	return cases.Title(language.English).String(strings.ReplaceAll(string(c), "_", " "))
}

// Rank is the position of c in Categories, or len(Categories) if unknown.
func (c Category) Rank() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return len(Categories)
}

// Rules returns the legend lines shown next to the category metrics.
func Rules() []string {
	return []string{
		"In Earth masses and Earth radii",
		"Gas Giants:   Radius > 4.5 or Mass >= 159",
		"Ice Giants:   2.1 < Radius <= 4.5 or 10 <= Mass < 159",
		"Super Earths: 1.0 < Radius <= 2.1 or 1 <= Mass < 10",
		"Terrestrial:  0.1 < Radius <= 1.0 or 0.1 < Mass < 1",
	}
}
