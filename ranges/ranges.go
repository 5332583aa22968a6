/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package ranges resolves a marker's applicable bounds for a unit system and
// scores how far a patient value deviates from them.
package ranges

import (
	"github.com/humaidq/labrisk/catalog"
)

// Status is the qualitative reading of a value against its ranges.
type Status string

// Statuses.
const (
	StatusOptimal        Status = "optimal"
	StatusNormal         Status = "normal"
	StatusOutOfOptimal   Status = "out_of_optimal"
	StatusOutOfReference Status = "out_of_reference"
	StatusUnknown        Status = "unknown"
	StatusNoValue        Status = "no_value"
)

// Fallback severities used when the bounds needed for a ratio are missing.
const (
	UnknownOptimalSeverity = 0.25
	UnknownNormalSeverity  = 1.0

	maxInNormalSeverity    = 1.0
	maxOutOfNormalSeverity = 1.5
)

// Resolution is the outcome of resolving a marker for one unit system.
type Resolution struct {
	Marker            string             `json:"marker"`
	UnitSystem        catalog.UnitSystem `json:"unit_system"`
	Unit              string             `json:"unit"`
	NormalMin         *float64           `json:"normal_min"`
	NormalMax         *float64           `json:"normal_max"`
	OptimalMin        *float64           `json:"optimal_min"`
	OptimalMax        *float64           `json:"optimal_max"`
	NormalUnitSystem  catalog.UnitSystem `json:"normal_unit_system"`
	OptimalUnitSystem catalog.UnitSystem `json:"optimal_unit_system"`

	Value     *float64          `json:"value,omitempty"`
	HasValue  bool              `json:"has_value"`
	InNormal  bool              `json:"in_normal"`
	InOptimal bool              `json:"in_optimal"`
	Direction catalog.Direction `json:"direction"`
	Severity  float64           `json:"severity"`
	Status    Status            `json:"status"`
}

// Normal returns the resolved normal bounds.
func (r Resolution) Normal() catalog.Bounds {
	return catalog.Bounds{Min: r.NormalMin, Max: r.NormalMax}
}

// Optimal returns the resolved optimal bounds.
func (r Resolution) Optimal() catalog.Bounds {
	return catalog.Bounds{Min: r.OptimalMin, Max: r.OptimalMax}
}

// Resolve computes the bounds of m for unit system u and, when value is not
// nil, how value sits against them. Missing bounds never cause an error; they
// produce the unknown direction and the fallback severities.
func Resolve(m *catalog.Marker, u catalog.UnitSystem, value *float64) Resolution {
	u = catalog.NormalizeUnitSystem(string(u))

	normal, normalSystem := pick(m, catalog.Standard, u)
	optimal, optimalSystem := pick(m, catalog.Optimal, u)

	res := Resolution{
		Marker:            m.Name,
		UnitSystem:        u,
		Unit:              m.Unit(u),
		NormalMin:         normal.Min,
		NormalMax:         normal.Max,
		OptimalMin:        optimal.Min,
		OptimalMax:        optimal.Max,
		NormalUnitSystem:  normalSystem,
		OptimalUnitSystem: optimalSystem,
		Direction:         catalog.DirectionUnknown,
		Status:            StatusNoValue,
	}

	if value == nil {
		return res
	}

	v := *value
	res.Value = &v
	res.HasValue = true
	res.InNormal = within(normal, v)
	res.InOptimal = within(optimal, v)
	res.Direction = direction(optimal, v)
	res.Severity = severity(normal, optimal, v, res.InNormal, res.InOptimal)
	res.Status = status(normal, optimal, v, res.InNormal, res.InOptimal)

	return res
}

// pick returns the pair for scope in unit system u, or the opposite system's
// pair when u has no bounds for that scope.
func pick(m *catalog.Marker, scope catalog.Scope, u catalog.UnitSystem) (catalog.Bounds, catalog.UnitSystem) {
	if b := m.Range(scope, u); !b.Empty() {
		return b, u
	}

	if b := m.Range(scope, u.Opposite()); !b.Empty() {
		return b, u.Opposite()
	}

	return catalog.Bounds{}, ""
}

func known(b catalog.Bounds) bool {
	return b.Min != nil && b.Max != nil
}

// within is inclusive and false when either bound is unknown.
func within(b catalog.Bounds, v float64) bool {
	return known(b) && v >= *b.Min && v <= *b.Max
}

func direction(optimal catalog.Bounds, v float64) catalog.Direction {
	switch {
	case optimal.Min != nil && v < *optimal.Min:
		return catalog.DirectionLow
	case optimal.Max != nil && v > *optimal.Max:
		return catalog.DirectionHigh
	case known(optimal):
		return catalog.DirectionOptimal
	default:
		return catalog.DirectionUnknown
	}
}

func severity(normal, optimal catalog.Bounds, v float64, inNormal, inOptimal bool) float64 {
	if inOptimal {
		return 0
	}

	if inNormal {
		width := *normal.Max - *normal.Min
		if !known(optimal) || width <= 0 {
			return UnknownOptimalSeverity
		}

		return clamp(distance(optimal, v)/width, 0, maxInNormalSeverity)
	}

	if !known(normal) {
		return UnknownNormalSeverity
	}

	width := *normal.Max - *normal.Min
	if width <= 0 {
		return UnknownNormalSeverity
	}

	return clamp(distance(normal, v)/width, 0, maxOutOfNormalSeverity)
}

func status(normal, optimal catalog.Bounds, v float64, inNormal, inOptimal bool) Status {
	switch {
	case inOptimal:
		return StatusOptimal
	case inNormal && known(optimal):
		return StatusOutOfOptimal
	case inNormal:
		return StatusNormal
	case distance(normal, v) > 0:
		return StatusOutOfReference
	default:
		return StatusUnknown
	}
}

// distance is how far v lies beyond the nearest present bound of b, or 0.
func distance(b catalog.Bounds, v float64) float64 {
	if b.Min != nil && v < *b.Min {
		return *b.Min - v
	}

	if b.Max != nil && v > *b.Max {
		return v - *b.Max
	}

	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
