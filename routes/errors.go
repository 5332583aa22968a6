/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"fmt"

	"github.com/humaidq/labrisk/apperr"
)

var (
	errUserIDMissing       = fmt.Errorf("%w: %s header is required", apperr.ErrInvalidInput, userIDHeader)
	errUserIDInvalid       = fmt.Errorf("%w: %s header must be a UUID", apperr.ErrInvalidInput, userIDHeader)
	errInvalidRequestBody  = fmt.Errorf("%w: invalid request body", apperr.ErrInvalidInput)
	errInvalidTaskID       = fmt.Errorf("%w: invalid task id", apperr.ErrInvalidInput)
	errInvalidValue        = fmt.Errorf("%w: invalid value", apperr.ErrInvalidInput)
	errInvalidRecordedAt   = fmt.Errorf("%w: recorded_at must be RFC 3339", apperr.ErrInvalidInput)
	errSuggestionsDisabled = fmt.Errorf("%w: condition suggestions are not configured", apperr.ErrUpstreamFailure)
)
