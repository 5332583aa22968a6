/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package catalog holds the reference data for markers and health conditions.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnitSystem selects conventional or international units for values and bounds.
type UnitSystem string

// Supported unit systems.
const (
	Conventional  UnitSystem = "conventional"
	International UnitSystem = "international"
)

// Opposite returns the other unit system.
func (u UnitSystem) Opposite() UnitSystem {
	if u == International {
		return Conventional
	}

	return International
}

// ParseUnitSystem parses a unit-system selector. Empty input selects
// conventional units.
func ParseUnitSystem(s string) (UnitSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Conventional):
		return Conventional, nil
	case string(International):
		return International, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnitSystem, s)
	}
}

// NormalizeUnitSystem is ParseUnitSystem with invalid input mapped to
// conventional units.
func NormalizeUnitSystem(s string) UnitSystem {
	u, err := ParseUnitSystem(s)
	if err != nil {
		return Conventional
	}

	return u
}

// Scope names a range family.
type Scope string

// Range scopes.
const (
	Standard Scope = "standard"
	Optimal  Scope = "optimal"
)

// Direction is the side of the optimal range a value sits on.
type Direction string

// Directions.
const (
	DirectionLow     Direction = "low"
	DirectionHigh    Direction = "high"
	DirectionOptimal Direction = "optimal"
	DirectionUnknown Direction = "unknown"
)

// Bounds is a (min, max) pair. Either side may be absent.
type Bounds struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// Empty reports whether neither bound is present.
func (b Bounds) Empty() bool {
	return b.Min == nil && b.Max == nil
}

// Valid reports whether min <= max when both are present.
func (b Bounds) Valid() bool {
	return b.Min == nil || b.Max == nil || *b.Min <= *b.Max
}

// RangeSet holds one scope's bounds for both unit systems.
type RangeSet struct {
	Conventional  Bounds `yaml:"conventional,omitempty" json:"conventional"`
	International Bounds `yaml:"international,omitempty" json:"international"`
}

// For returns the bounds for the given unit system.
func (r RangeSet) For(u UnitSystem) Bounds {
	if u == International {
		return r.International
	}

	return r.Conventional
}

// Narrative is the direction-specific text attached to a marker.
type Narrative struct {
	ClinicalImplications string `yaml:"clinical_implications,omitempty" json:"clinical_implications,omitempty"`
	OtherConditions      string `yaml:"other_conditions,omitempty" json:"other_conditions,omitempty"`
	InterferingFactors   string `yaml:"interfering_factors,omitempty" json:"interfering_factors,omitempty"`
	DrugCauses           string `yaml:"drug_causes,omitempty" json:"drug_causes,omitempty"`
}

// Empty reports whether every field is blank.
func (n Narrative) Empty() bool {
	return strings.TrimSpace(n.ClinicalImplications) == "" &&
		strings.TrimSpace(n.OtherConditions) == "" &&
		strings.TrimSpace(n.InterferingFactors) == "" &&
		strings.TrimSpace(n.DrugCauses) == ""
}

// Marker is a lab-measurable quantity with its reference ranges.
type Marker struct {
	Name              string    `yaml:"name" json:"name"`
	DisplayName       string    `yaml:"display_name,omitempty" json:"display_name"`
	Background        string    `yaml:"background,omitempty" json:"background,omitempty"`
	Discussion        string    `yaml:"discussion,omitempty" json:"discussion,omitempty"`
	Standard          RangeSet  `yaml:"standard,omitempty" json:"standard"`
	Optimal           RangeSet  `yaml:"optimal,omitempty" json:"optimal"`
	ConventionalUnit  string    `yaml:"conventional_unit,omitempty" json:"conventional_unit,omitempty"`
	InternationalUnit string    `yaml:"international_unit,omitempty" json:"international_unit,omitempty"`
	Low               Narrative `yaml:"low,omitempty" json:"low"`
	High              Narrative `yaml:"high,omitempty" json:"high"`
	DrugTests         string    `yaml:"drug_tests,omitempty" json:"drug_tests,omitempty"`
}

// Label returns the display name, or the name when no display name is set.
func (m *Marker) Label() string {
	if strings.TrimSpace(m.DisplayName) != "" {
		return m.DisplayName
	}

	return m.Name
}

// Range returns the bounds stored for scope and unit system, without fallback.
func (m *Marker) Range(scope Scope, u UnitSystem) Bounds {
	if scope == Optimal {
		return m.Optimal.For(u)
	}

	return m.Standard.For(u)
}

// Unit returns the display unit for u, falling back to the other system's unit.
func (m *Marker) Unit(u UnitSystem) string {
	primary, secondary := m.ConventionalUnit, m.InternationalUnit
	if u == International {
		primary, secondary = secondary, primary
	}

	if strings.TrimSpace(primary) != "" {
		return primary
	}

	return secondary
}

// Narrative returns the text bucket for a low or high direction.
func (m *Marker) Narrative(d Direction) Narrative {
	switch d {
	case DirectionLow:
		return m.Low
	case DirectionHigh:
		return m.High
	default:
		return Narrative{}
	}
}

// Validate checks the marker name and that min <= max for every range pair.
func (m *Marker) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyMarkerName
	}

	pairs := []struct {
		scope Scope
		unit  UnitSystem
	}{
		{Standard, Conventional},
		{Standard, International},
		{Optimal, Conventional},
		{Optimal, International},
	}
	for _, p := range pairs {
		if !m.Range(p.scope, p.unit).Valid() {
			return fmt.Errorf("%w: %s %s %s", ErrInvalidRange, m.Name, p.scope, p.unit)
		}
	}

	return nil
}

// HealthCondition is a named condition with markers expected to run low or high.
type HealthCondition struct {
	ConditionID      string   `json:"condition_id"`
	DisplayName      string   `json:"display_name"`
	Background       string   `json:"background,omitempty"`
	SignsAndSymptoms []string `json:"signs_and_symptoms,omitempty"`
	AssociatedLow    []Marker `json:"associated_low"`
	AssociatedHigh   []Marker `json:"associated_high"`
	ExpertComment    string   `json:"expert_comment,omitempty"`
}

// Label returns the display name, or the condition id when no display name is set.
func (c *HealthCondition) Label() string {
	if strings.TrimSpace(c.DisplayName) != "" {
		return c.DisplayName
	}

	return c.ConditionID
}

// Observation is one recorded patient value.
type Observation struct {
	Value      float64    `json:"value"`
	UnitSystem UnitSystem `json:"unit_system"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// ObservationSet maps marker names to a patient's latest values.
type ObservationSet map[string]Observation

// Value returns the observed value for marker, or nil.
func (s ObservationSet) Value(marker string) *float64 {
	obs, ok := s[marker]
	if !ok {
		return nil
	}

	v := obs.Value

	return &v
}

// UnitSystems returns the unit system each observation was recorded in.
func (s ObservationSet) UnitSystems() map[string]UnitSystem {
	out := make(map[string]UnitSystem, len(s))
	for name, obs := range s {
		if obs.UnitSystem != "" {
			out[name] = obs.UnitSystem
		}
	}

	return out
}

// Catalog is read access to markers and conditions.
type Catalog interface {
	GetMarker(ctx context.Context, name string) (*Marker, error)
	GetCondition(ctx context.Context, conditionID string) (*HealthCondition, error)
	ListConditions(ctx context.Context) ([]HealthCondition, error)
	ListMarkers(ctx context.Context) ([]Marker, error)
}

// ObservationSource returns a user's most recent observations.
type ObservationSource interface {
	GetLatestObservations(ctx context.Context, userID uuid.UUID) (ObservationSet, error)
}

// ConditionIDs returns the ids of conditions in order.
func ConditionIDs(conditions []HealthCondition) []string {
	ids := make([]string, 0, len(conditions))
	for _, c := range conditions {
		ids = append(ids, c.ConditionID)
	}

	return ids
}
