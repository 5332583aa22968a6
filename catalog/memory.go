/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Memory is an immutable in-memory catalog. It is safe for concurrent use.
type Memory struct {
	markers    map[string]Marker
	conditions map[string]HealthCondition
	markerKeys []string
	condKeys   []string
}

var _ Catalog = (*Memory)(nil)

// NewMemory validates markers and conditions and builds a catalog from them.
func NewMemory(markers []Marker, conditions []HealthCondition) (*Memory, error) {
	m := &Memory{
		markers:    make(map[string]Marker, len(markers)),
		conditions: make(map[string]HealthCondition, len(conditions)),
	}

	for _, marker := range markers {
		if err := marker.Validate(); err != nil {
			return nil, err
		}

		if _, exists := m.markers[marker.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMarker, marker.Name)
		}

		m.markers[marker.Name] = marker
		m.markerKeys = append(m.markerKeys, marker.Name)
	}

	for _, cond := range conditions {
		if strings.TrimSpace(cond.ConditionID) == "" {
			return nil, ErrEmptyConditionID
		}

		if _, exists := m.conditions[cond.ConditionID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCondition, cond.ConditionID)
		}

		m.conditions[cond.ConditionID] = cond
		m.condKeys = append(m.condKeys, cond.ConditionID)
	}

	sort.Strings(m.markerKeys)
	sort.Strings(m.condKeys)

	return m, nil
}

// GetMarker returns a copy of the named marker.
func (m *Memory) GetMarker(_ context.Context, name string) (*Marker, error) {
	marker, ok := m.markers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMarkerNotFound, name)
	}

	return &marker, nil
}

// GetCondition returns a copy of the condition with the given id.
func (m *Memory) GetCondition(_ context.Context, conditionID string) (*HealthCondition, error) {
	cond, ok := m.conditions[conditionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConditionNotFound, conditionID)
	}

	cond = cloneCondition(cond)

	return &cond, nil
}

// ListConditions returns every condition ordered by id.
func (m *Memory) ListConditions(_ context.Context) ([]HealthCondition, error) {
	out := make([]HealthCondition, 0, len(m.condKeys))
	for _, id := range m.condKeys {
		out = append(out, cloneCondition(m.conditions[id]))
	}

	return out, nil
}

// ListMarkers returns every marker ordered by name.
func (m *Memory) ListMarkers(_ context.Context) ([]Marker, error) {
	out := make([]Marker, 0, len(m.markerKeys))
	for _, name := range m.markerKeys {
		out = append(out, m.markers[name])
	}

	return out, nil
}

func cloneCondition(c HealthCondition) HealthCondition {
	c.SignsAndSymptoms = slices.Clone(c.SignsAndSymptoms)
	c.AssociatedLow = slices.Clone(c.AssociatedLow)
	c.AssociatedHigh = slices.Clone(c.AssociatedHigh)

	return c
}
