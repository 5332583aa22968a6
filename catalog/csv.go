/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/humaidq/labrisk/utils"
)

// Column headers of the marker reference spreadsheet. The misspelt
// "Condtions" headers are what the spreadsheet ships with.
const (
	colName                 = "Name"
	colBackground           = "Background"
	colDiscussion           = "Discussion"
	colLowStandardConv      = "Low Standard Conventional"
	colHighStandardConv     = "High Standard Conventional"
	colLowStandardIntl      = "Low Standard International"
	colHighStandardIntl     = "High Standard International"
	colLowOptimalConv       = "Low Optimal Conventional"
	colHighOptimalConv      = "High Optimal Conventional"
	colLowOptimalIntl       = "Low Optimal International"
	colHighOptimalIntl      = "High Optimal International"
	colStandardUnit         = "Standard Unit"
	colInternationalUnit    = "International Units"
	colClinicalLow          = "Clinical Implications Low"
	colClinicalHigh         = "Clinical Implications High"
	colOtherLow             = "Other Condtions Low"
	colOtherHigh            = "Other Condtions High"
	colInterferingElevated  = "Interfering Factors Falsely Elevated"
	colInterferingDecreased = "Interfering Factors Falsely Decreased"
	colDrugTests            = "Drug Tests"
	colDrugCausesDecreased  = "Drug Causes of Decreased Levels"
	colDrugCausesIncreased  = "Drug Causes of Increased Levels"
)

var requiredMarkerColumns = []string{
	colName, colBackground, colDiscussion,
	colLowStandardConv, colHighStandardConv,
	colLowStandardIntl, colHighStandardIntl,
	colLowOptimalConv, colHighOptimalConv,
	colLowOptimalIntl, colHighOptimalIntl,
	colStandardUnit, colInternationalUnit,
	colClinicalLow, colClinicalHigh,
	colOtherLow, colOtherHigh,
	colInterferingElevated, colInterferingDecreased,
	colDrugTests, colDrugCausesDecreased, colDrugCausesIncreased,
}

// ReadMarkersCSV reads markers from a marker reference spreadsheet export.
// Rows without a name are skipped and unparsable bounds are left absent.
func ReadMarkersCSV(r io.Reader) ([]Marker, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(requiredMarkerColumns, ", "))
		}

		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	var missing []string
	for _, col := range requiredMarkerColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var (
		markers []Marker
		seen    = make(map[string]bool)
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		cell := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}

			return strings.TrimSpace(record[i])
		}

		display := cell(colName)
		if display == "" {
			continue
		}

		name, err := utils.Slug(display)
		if err != nil || seen[name] {
			continue
		}

		seen[name] = true

		m := Marker{
			Name:        name,
			DisplayName: display,
			Background:  cell(colBackground),
			Discussion:  cell(colDiscussion),
			Standard: RangeSet{
				Conventional:  bounds(cell(colLowStandardConv), cell(colHighStandardConv)),
				International: bounds(cell(colLowStandardIntl), cell(colHighStandardIntl)),
			},
			Optimal: RangeSet{
				Conventional:  bounds(cell(colLowOptimalConv), cell(colHighOptimalConv)),
				International: bounds(cell(colLowOptimalIntl), cell(colHighOptimalIntl)),
			},
			ConventionalUnit:  cell(colStandardUnit),
			InternationalUnit: cell(colInternationalUnit),
			Low: Narrative{
				ClinicalImplications: cell(colClinicalLow),
				OtherConditions:      cell(colOtherLow),
				InterferingFactors:   cell(colInterferingDecreased),
				DrugCauses:           cell(colDrugCausesDecreased),
			},
			High: Narrative{
				ClinicalImplications: cell(colClinicalHigh),
				OtherConditions:      cell(colOtherHigh),
				InterferingFactors:   cell(colInterferingElevated),
				DrugCauses:           cell(colDrugCausesIncreased),
			},
			DrugTests: cell(colDrugTests),
		}

		if err := m.Validate(); err != nil {
			return nil, err
		}

		markers = append(markers, m)
	}

	return markers, nil
}

func bounds(lo, hi string) Bounds {
	return Bounds{Min: utils.ParseOptionalNumber(lo), Max: utils.ParseOptionalNumber(hi)}
}
