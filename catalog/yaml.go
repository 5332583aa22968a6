/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/humaidq/labrisk/utils"
)

//go:embed seed.yaml
var seedYAML []byte

// Document is the on-disk catalog layout. Conditions reference markers by name.
type Document struct {
	Markers    []Marker            `yaml:"markers"`
	Conditions []ConditionDocument `yaml:"conditions"`
}

// ConditionDocument is a condition as written in a catalog file.
type ConditionDocument struct {
	ID               string   `yaml:"id,omitempty"`
	DisplayName      string   `yaml:"display_name"`
	Background       string   `yaml:"background,omitempty"`
	SignsAndSymptoms []string `yaml:"signs_and_symptoms,omitempty"`
	LowMarkers       []string `yaml:"low_markers,omitempty"`
	HighMarkers      []string `yaml:"high_markers,omitempty"`
	ExpertComment    string   `yaml:"expert_comment,omitempty"`
}

// Seed returns the embedded default catalog.
func Seed() (*Memory, error) {
	return Load(bytes.NewReader(seedYAML))
}

// LoadFile reads a catalog document from path.
func LoadFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Load parses a catalog document and resolves marker references.
func Load(r io.Reader) (*Memory, error) {
	var doc Document

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	markers, conditions, err := doc.Resolve()
	if err != nil {
		return nil, err
	}

	return NewMemory(markers, conditions)
}

// Resolve fills display names, derives missing condition ids and replaces
// marker references with the referenced markers.
func (d *Document) Resolve() ([]Marker, []HealthCondition, error) {
	byName := make(map[string]Marker, len(d.Markers))
	markers := make([]Marker, 0, len(d.Markers))

	for _, m := range d.Markers {
		m.Name = strings.TrimSpace(m.Name)
		if m.DisplayName == "" {
			m.DisplayName = utils.DisplayName(m.Name)
		}

		if err := m.Validate(); err != nil {
			return nil, nil, err
		}

		if _, exists := byName[m.Name]; exists {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateMarker, m.Name)
		}

		byName[m.Name] = m
		markers = append(markers, m)
	}

	conditions := make([]HealthCondition, 0, len(d.Conditions))

	for _, c := range d.Conditions {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			slug, err := utils.Slug(c.DisplayName)
			if err != nil {
				return nil, nil, ErrEmptyConditionID
			}

			id = slug
		}

		low, err := lookupMarkers(byName, id, c.LowMarkers)
		if err != nil {
			return nil, nil, err
		}

		high, err := lookupMarkers(byName, id, c.HighMarkers)
		if err != nil {
			return nil, nil, err
		}

		display := c.DisplayName
		if display == "" {
			display = utils.DisplayName(id)
		}

		conditions = append(conditions, HealthCondition{
			ConditionID:      id,
			DisplayName:      display,
			Background:       c.Background,
			SignsAndSymptoms: c.SignsAndSymptoms,
			AssociatedLow:    low,
			AssociatedHigh:   high,
			ExpertComment:    c.ExpertComment,
		})
	}

	return markers, conditions, nil
}

func lookupMarkers(byName map[string]Marker, conditionID string, names []string) ([]Marker, error) {
	out := make([]Marker, 0, len(names))
	for _, name := range names {
		m, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %s references %q", ErrUnknownMarkerRef, conditionID, name)
		}

		out = append(out, m)
	}

	return out, nil
}
