// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package brief

import (
	"strings"
	"testing"

	"github.com/humaidq/labrisk/catalog"
)

func floatPtr(value float64) *float64 {
	return &value
}

func ferritin() catalog.Marker {
	return catalog.Marker{
		Name:             "ferritin",
		DisplayName:      "Ferritin",
		Background:       "Iron storage protein.",
		ConventionalUnit: "ng/mL",
		Standard: catalog.RangeSet{
			Conventional: catalog.Bounds{Min: floatPtr(30), Max: floatPtr(300)},
		},
		Optimal: catalog.RangeSet{
			Conventional: catalog.Bounds{Min: floatPtr(50), Max: floatPtr(150)},
		},
		Low:  catalog.Narrative{ClinicalImplications: "Depleted iron stores."},
		High: catalog.Narrative{ClinicalImplications: "Iron overload."},
	}
}

func tsh() catalog.Marker {
	return catalog.Marker{
		Name:        "tsh",
		DisplayName: "TSH",
		Standard: catalog.RangeSet{
			International: catalog.Bounds{Max: floatPtr(4.5)},
		},
		Low:  catalog.Narrative{DrugCauses: "Glucocorticoids."},
		High: catalog.Narrative{OtherConditions: "Hashimoto's thyroiditis."},
	}
}

func TestBuildContextNoMarkers(t *testing.T) {
	t.Parallel()

	got := BuildContext(&catalog.HealthCondition{ConditionID: "empty"}, nil, nil, catalog.Conventional)
	if got != NoMarkersLine {
		t.Fatalf("expected sentinel line, got %q", got)
	}
}

func TestBuildContextLowDirection(t *testing.T) {
	t.Parallel()

	cond := &catalog.HealthCondition{
		ConditionID:   "iron_deficiency_anemia",
		AssociatedLow: []catalog.Marker{ferritin()},
	}
	obs := catalog.ObservationSet{"ferritin": {Value: 20, UnitSystem: catalog.Conventional}}

	got := BuildContext(cond, obs, obs.UnitSystems(), catalog.International)

	for _, want := range []string{
		"[ferritin] Ferritin (association: LOW)",
		"Patient value: 20 ng/mL (conventional)",
		"direction: low, severity: 0.037",
		"Normal range: 30-300 ng/mL",
		"Optimal range: 50-150 ng/mL",
		"Background: Iron storage protein.",
		"Depleted iron stores.",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in brief:\n%s", want, got)
		}
	}

	if strings.Contains(got, "Iron overload.") {
		t.Fatalf("expected high narrative to be omitted for low direction:\n%s", got)
	}
}

func TestBuildContextNarrativeByDirection(t *testing.T) {
	t.Parallel()

	const (
		lowNote  = "Depleted iron stores."
		highNote = "Iron overload."
	)

	tests := []struct {
		name     string
		value    *float64
		wantLow  bool
		wantHigh bool
	}{
		{name: "low", value: floatPtr(20), wantLow: true},
		{name: "high out of reference", value: floatPtr(400), wantHigh: true},
		{name: "high within reference", value: floatPtr(200), wantHigh: true},
		{name: "optimal", value: floatPtr(100), wantLow: true, wantHigh: true},
		{name: "no value", wantLow: true, wantHigh: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cond := &catalog.HealthCondition{
				ConditionID:    "iron_disorder",
				AssociatedLow:  []catalog.Marker{ferritin()},
				AssociatedHigh: []catalog.Marker{ferritin()},
			}

			var obs catalog.ObservationSet
			if tt.value != nil {
				obs = catalog.ObservationSet{"ferritin": {Value: *tt.value, UnitSystem: catalog.Conventional}}
			}

			got := BuildContext(cond, obs, obs.UnitSystems(), catalog.Conventional)

			if strings.Contains(got, lowNote) != tt.wantLow {
				t.Fatalf("low narrative present = %v, want %v:\n%s", !tt.wantLow, tt.wantLow, got)
			}

			if strings.Contains(got, highNote) != tt.wantHigh {
				t.Fatalf("high narrative present = %v, want %v:\n%s", !tt.wantHigh, tt.wantHigh, got)
			}
		})
	}
}

func TestBuildContextOrderingAndLabels(t *testing.T) {
	t.Parallel()

	cond := &catalog.HealthCondition{
		ConditionID:    "thyroid_dysfunction",
		AssociatedLow:  []catalog.Marker{tsh(), ferritin()},
		AssociatedHigh: []catalog.Marker{ferritin(), tsh()},
	}

	got := BuildContext(cond, nil, nil, catalog.Conventional)

	tshAt := strings.Index(got, "[tsh] TSH (association: LOW/HIGH)")
	ferritinAt := strings.Index(got, "[ferritin] Ferritin (association: LOW/HIGH)")

	if tshAt < 0 || ferritinAt < 0 || tshAt > ferritinAt {
		t.Fatalf("expected tsh before ferritin with LOW/HIGH labels:\n%s", got)
	}

	if strings.Count(got, "[ferritin]") != 1 {
		t.Fatalf("expected ferritin once:\n%s", got)
	}

	for _, want := range []string{
		"no value recorded",
		"Normal range: <= 4.5",
		"Optimal range: unknown",
		"Glucocorticoids.",
		"Hashimoto's thyroiditis.",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in brief:\n%s", want, got)
		}
	}
}

func TestBuildContextOverridesUnitSystem(t *testing.T) {
	t.Parallel()

	m := ferritin()
	m.InternationalUnit = "µg/L"
	m.Standard.International = catalog.Bounds{Min: floatPtr(67), Max: floatPtr(674)}

	cond := &catalog.HealthCondition{ConditionID: "x", AssociatedHigh: []catalog.Marker{m}}
	obs := catalog.ObservationSet{"ferritin": {Value: 100}}

	got := BuildContext(cond, obs, map[string]catalog.UnitSystem{"ferritin": catalog.International}, catalog.Conventional)

	if !strings.Contains(got, "Normal range: 67-674 µg/L") {
		t.Fatalf("expected international normal range:\n%s", got)
	}

	if !strings.Contains(got, "Optimal range: 50-150 ng/mL") {
		t.Fatalf("expected optimal range to fall back to conventional:\n%s", got)
	}
}

func TestAssociation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		low, high bool
		want      string
	}{
		{low: true, want: "LOW"},
		{high: true, want: "HIGH"},
		{low: true, high: true, want: "LOW/HIGH"},
		{want: "—"},
	}

	for _, tc := range cases {
		if got := Association(tc.low, tc.high); got != tc.want {
			t.Fatalf("Association(%v, %v) = %q, want %q", tc.low, tc.high, got, tc.want)
		}
	}
}

func TestBuildAnalysisOrdersOutOfReferenceFirst(t *testing.T) {
	t.Parallel()

	b12 := catalog.Marker{
		Name: "vitamin_b12",
		Standard: catalog.RangeSet{
			Conventional: catalog.Bounds{Min: floatPtr(200), Max: floatPtr(1100)},
		},
		Optimal: catalog.RangeSet{
			Conventional: catalog.Bounds{Min: floatPtr(500), Max: floatPtr(900)},
		},
	}
	obs := catalog.ObservationSet{
		"vitamin_b12": {Value: 300},
		"ferritin":    {Value: 10},
		"tsh":         {Value: 2},
	}

	got := BuildAnalysis([]catalog.Marker{b12, ferritin(), tsh()}, obs, nil, catalog.Conventional)

	ferritinAt := strings.Index(got, "[ferritin]")
	b12At := strings.Index(got, "[vitamin_b12]")

	if ferritinAt < 0 || b12At < 0 || ferritinAt > b12At {
		t.Fatalf("expected out-of-reference ferritin before out-of-optimal B12:\n%s", got)
	}

	if strings.Contains(got, "[tsh]") {
		t.Fatalf("expected undecidable tsh to be left out:\n%s", got)
	}

	if none := BuildAnalysis([]catalog.Marker{b12}, nil, nil, catalog.Conventional); none != NoDeviationsLine {
		t.Fatalf("expected sentinel line, got %q", none)
	}
}
