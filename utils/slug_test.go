// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package utils

import "testing"

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Hypothyroidism":            "hypothyroidism",
		"  Iron Deficiency Anemia":  "iron_deficiency_anemia",
		"B12 / Folate deficiency":   "b12_folate_deficiency",
		"Non-alcoholic fatty liver": "non_alcoholic_fatty_liver",
	}

	for input, want := range tests {
		got, err := Slug(input)
		if err != nil {
			t.Fatalf("Slug(%q) failed: %v", input, err)
		}
		if got != want {
			t.Fatalf("Slug(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := Slug(" -- "); err == nil {
		t.Fatal("expected error for empty slug")
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown_condition_xyz": "Unknown Condition Xyz",
		"adrenal-fatigue":       "Adrenal Fatigue",
		"  LEAKY  gut ":         "Leaky Gut",
		"":                      "",
	}

	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCollapseSeparators(t *testing.T) {
	t.Parallel()

	if got := CollapseSeparators(" Hypothyroid  ism "); got != "hypothyroid_ism" {
		t.Fatalf("unexpected collapsed identifier %q", got)
	}
}
