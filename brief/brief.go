/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package brief assembles the textual marker context that is handed to the
// risk scorer.
package brief

import (
	"fmt"
	"strings"

	"github.com/humaidq/labrisk/catalog"
	"github.com/humaidq/labrisk/ranges"
	"github.com/humaidq/labrisk/utils"
)

// Sentinel lines returned instead of an empty brief.
const (
	NoMarkersLine    = "No associated markers are defined for this condition."
	NoDeviationsLine = "No recorded markers are outside their reference or optimal ranges."
)

const noAssociation = "—"

type entry struct {
	marker catalog.Marker
	low    bool
	high   bool
}

// Association returns the label for a marker's link to a condition.
func Association(low, high bool) string {
	switch {
	case low && high:
		return "LOW/HIGH"
	case low:
		return "LOW"
	case high:
		return "HIGH"
	default:
		return noAssociation
	}
}

// BuildContext describes every marker associated with cond against the
// patient's observations. Markers in both sets keep their low-set position.
func BuildContext(cond *catalog.HealthCondition, obs catalog.ObservationSet, overrides map[string]catalog.UnitSystem, def catalog.UnitSystem) string {
	entries := collect(cond)
	if len(entries) == 0 {
		return NoMarkersLine
	}

	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		res := ranges.Resolve(&e.marker, unitSystemFor(e.marker.Name, overrides, def), obs.Value(e.marker.Name))
		blocks = append(blocks, block(&e.marker, res, Association(e.low, e.high)))
	}

	return strings.Join(blocks, "\n")
}

// BuildAnalysis reports observed markers outside their reference range,
// followed by those inside it but outside the optimal range.
func BuildAnalysis(markers []catalog.Marker, obs catalog.ObservationSet, overrides map[string]catalog.UnitSystem, def catalog.UnitSystem) string {
	var outOfReference, outOfOptimal []string

	for i := range markers {
		m := &markers[i]

		value := obs.Value(m.Name)
		if value == nil {
			continue
		}

		res := ranges.Resolve(m, unitSystemFor(m.Name, overrides, def), value)

		switch res.Status {
		case ranges.StatusOutOfReference:
			outOfReference = append(outOfReference, block(m, res, ""))
		case ranges.StatusOutOfOptimal:
			outOfOptimal = append(outOfOptimal, block(m, res, ""))
		}
	}

	if len(outOfReference)+len(outOfOptimal) == 0 {
		return NoDeviationsLine
	}

	return strings.Join(append(outOfReference, outOfOptimal...), "\n")
}

func collect(cond *catalog.HealthCondition) []entry {
	if cond == nil {
		return nil
	}

	var entries []entry

	index := make(map[string]int)

	add := func(markers []catalog.Marker, low bool) {
		for _, m := range markers {
			if i, ok := index[m.Name]; ok {
				if low {
					entries[i].low = true
				} else {
					entries[i].high = true
				}

				continue
			}

			index[m.Name] = len(entries)
			entries = append(entries, entry{marker: m, low: low, high: !low})
		}
	}

	add(cond.AssociatedLow, true)
	add(cond.AssociatedHigh, false)

	return entries
}

func unitSystemFor(name string, overrides map[string]catalog.UnitSystem, def catalog.UnitSystem) catalog.UnitSystem {
	if u, ok := overrides[name]; ok && u != "" {
		return catalog.NormalizeUnitSystem(string(u))
	}

	return catalog.NormalizeUnitSystem(string(def))
}

func block(m *catalog.Marker, res ranges.Resolution, association string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", m.Name, m.Label())
	if association != "" {
		fmt.Fprintf(&b, " (association: %s)", association)
	}

	b.WriteString("\n")

	if res.HasValue {
		fmt.Fprintf(&b, " - Patient value: %s (%s)\n", withUnit(utils.FormatNumber(*res.Value), res.Unit), res.UnitSystem)
		fmt.Fprintf(&b, " - Status: %s, direction: %s, severity: %.3f\n", res.Status, res.Direction, res.Severity)
	} else {
		b.WriteString(" - Patient value: no value recorded\n")
	}

	fmt.Fprintf(&b, " - Normal range: %s\n", formatRange(res.Normal(), m.Unit(res.NormalUnitSystem)))
	fmt.Fprintf(&b, " - Optimal range: %s\n", formatRange(res.Optimal(), m.Unit(res.OptimalUnitSystem)))

	writeField(&b, "Background", m.Background)
	writeField(&b, "Discussion", m.Discussion)
	writeField(&b, "Drug tests", m.DrugTests)

	switch res.Direction {
	case catalog.DirectionLow:
		writeNarrative(&b, "Low", m.Low)
	case catalog.DirectionHigh:
		writeNarrative(&b, "High", m.High)
	default:
		writeNarrative(&b, "Low", m.Low)
		writeNarrative(&b, "High", m.High)
	}

	return b.String()
}

func writeNarrative(b *strings.Builder, label string, n catalog.Narrative) {
	if n.Empty() {
		return
	}

	fmt.Fprintf(b, "%s-direction notes:\n", label)
	writeField(b, "Clinical implications", n.ClinicalImplications)
	writeField(b, "Other conditions", n.OtherConditions)
	writeField(b, "Interfering factors", n.InterferingFactors)
	writeField(b, "Drug causes", n.DrugCauses)
}

func writeField(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value == "" {
		return
	}

	fmt.Fprintf(b, " - %s: %s\n", label, value)
}

func formatRange(bounds catalog.Bounds, unit string) string {
	var s string

	switch {
	case bounds.Min != nil && bounds.Max != nil:
		s = utils.FormatNumber(*bounds.Min) + "-" + utils.FormatNumber(*bounds.Max)
	case bounds.Min != nil:
		s = ">= " + utils.FormatNumber(*bounds.Min)
	case bounds.Max != nil:
		s = "<= " + utils.FormatNumber(*bounds.Max)
	default:
		return "unknown"
	}

	return withUnit(s, unit)
}

func withUnit(s, unit string) string {
	if unit = strings.TrimSpace(unit); unit == "" {
		return s
	}

	return s + " " + unit
}
