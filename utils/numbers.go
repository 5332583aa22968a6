/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// numberNoise is stripped from spreadsheet cells before parsing.
var numberNoise = strings.NewReplacer(",", "", "%", "", "pg/Mol", "", "pg/mol", "")

// ParseNumber parses a loosely formatted numeric cell such as "1,200" or "45%".
func ParseNumber(s string) (float64, error) {
	cleaned := strings.TrimSpace(numberNoise.Replace(s))
	if cleaned == "" {
		return 0, errEmptyNumber
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidNumber, s)
	}

	return v, nil
}

// ParseOptionalNumber is ParseNumber for cells where a blank or unparsable
// value means the bound is absent.
func ParseOptionalNumber(s string) *float64 {
	v, err := ParseNumber(s)
	if err != nil {
		return nil
	}

	return &v
}

// FormatNumber renders v without trailing zeros: 30, 0.4, 5.75.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
