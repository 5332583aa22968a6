/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package catalog

import (
	"fmt"

	"github.com/humaidq/labrisk/apperr"
)

var (
	// ErrMarkerNotFound is returned when a marker name is not in the catalog.
	ErrMarkerNotFound = fmt.Errorf("marker %w", apperr.ErrNotFound)
	// ErrConditionNotFound is returned when a condition id is not in the catalog.
	ErrConditionNotFound = fmt.Errorf("condition %w", apperr.ErrNotFound)

	ErrInvalidUnitSystem  = fmt.Errorf("%w: unit system must be conventional or international", apperr.ErrInvalidInput)
	ErrInvalidRange       = fmt.Errorf("%w: range minimum exceeds maximum", apperr.ErrInvalidInput)
	ErrEmptyMarkerName    = fmt.Errorf("%w: marker name is required", apperr.ErrInvalidInput)
	ErrEmptyConditionID   = fmt.Errorf("%w: condition id is required", apperr.ErrInvalidInput)
	ErrDuplicateMarker    = fmt.Errorf("%w: duplicate marker", apperr.ErrInvalidInput)
	ErrDuplicateCondition = fmt.Errorf("%w: duplicate condition", apperr.ErrInvalidInput)
	ErrUnknownMarkerRef   = fmt.Errorf("%w: condition references unknown marker", apperr.ErrInvalidInput)
	ErrMissingColumns     = fmt.Errorf("%w: marker CSV is missing required columns", apperr.ErrInvalidInput)
)
