// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"strings"
	"testing"
)

func markerCSVHeader() string {
	return strings.Join(requiredMarkerColumns, ",")
}

func markerCSVRow(values map[string]string) string {
	cells := make([]string, len(requiredMarkerColumns))
	for i, col := range requiredMarkerColumns {
		cells[i] = values[col]
	}

	return strings.Join(cells, ",")
}

func TestReadMarkersCSV(t *testing.T) {
	t.Parallel()

	input := "\ufeff" + markerCSVHeader() + "\n" +
		markerCSVRow(map[string]string{
			colName:                "Vitamin B12",
			colLowStandardConv:     `"1,200"`,
			colHighStandardConv:    "n/a",
			colLowOptimalIntl:      "369 pg/mol",
			colStandardUnit:        "pg/mL",
			colClinicalLow:         "Deficiency",
			colInterferingElevated: "Supplements",
			colDrugCausesDecreased: "Metformin",
		}) + "\n" +
		markerCSVRow(map[string]string{colBackground: "orphan row"}) + "\n"

	markers, err := ReadMarkersCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadMarkersCSV failed: %v", err)
	}

	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}

	m := markers[0]
	if m.Name != "vitamin_b12" || m.DisplayName != "Vitamin B12" {
		t.Fatalf("unexpected identity: %q / %q", m.Name, m.DisplayName)
	}

	std := m.Standard.Conventional
	if std.Min == nil || *std.Min != 1200 || std.Max != nil {
		t.Fatalf("unexpected standard bounds: %+v", std)
	}

	if m.Optimal.International.Min == nil || *m.Optimal.International.Min != 369 {
		t.Fatalf("expected unit noise to be stripped, got %+v", m.Optimal.International)
	}

	if m.Low.ClinicalImplications != "Deficiency" || m.Low.DrugCauses != "Metformin" {
		t.Fatalf("unexpected low narrative: %+v", m.Low)
	}

	if m.High.InterferingFactors != "Supplements" {
		t.Fatalf("unexpected high narrative: %+v", m.High)
	}
}

func TestReadMarkersCSVMissingColumns(t *testing.T) {
	t.Parallel()

	_, err := ReadMarkersCSV(strings.NewReader("Name,Background\nFerritin,stores\n"))
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected missing columns error, got %v", err)
	}
}
