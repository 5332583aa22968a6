/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package scoring

import (
	"errors"
	"fmt"

	"github.com/humaidq/labrisk/apperr"
)

var (
	// ErrIncompleteConfig is returned when the Ollama server is not configured.
	ErrIncompleteConfig = errors.New("scoring configuration incomplete: OLLAMA_URL and OLLAMA_MODEL must be set")
	// ErrInvalidTimeout is returned for an unparsable SCORING_TIMEOUT.
	ErrInvalidTimeout = errors.New("invalid SCORING_TIMEOUT")

	ErrRequestFailed     = fmt.Errorf("%w: scoring request failed", apperr.ErrUpstreamFailure)
	ErrUnexpectedStatus  = fmt.Errorf("%w: scoring server returned an error", apperr.ErrUpstreamFailure)
	ErrCircuitOpen       = fmt.Errorf("%w: scoring server temporarily unavailable", apperr.ErrUpstreamFailure)
	ErrEmptyResponse     = fmt.Errorf("%w: scoring server returned no content", apperr.ErrUpstreamFailure)
	ErrMalformedResponse = fmt.Errorf("%w: malformed scoring response", apperr.ErrUpstreamFailure)
)
