/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package tasks

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ResultKind discriminates the serialised result variants.
type ResultKind string

// Result kinds.
const (
	ResultPending ResultKind = "pending"
	ResultScored  ResultKind = "scored"
)

// Result is the payload stored on a task: Pending before completion and
// Scored once the risk score is known.
type Result interface {
	Kind() ResultKind
}

// SymptomAnswer is one answered symptom question.
type SymptomAnswer struct {
	Symptom string `json:"symptom"`
	Answer  string `json:"answer"`
	Info    string `json:"info,omitempty"`
}

// Pending carries answers collected before the task runs.
type Pending struct {
	SymptomAnswers []SymptomAnswer `json:"symptom_answers"`
}

// Scored is the outcome of a successful risk computation.
type Scored struct {
	RiskScore   float64 `json:"risk_score"`
	Explanation string  `json:"explanation"`
}

// Kind implements Result.
func (Pending) Kind() ResultKind { return ResultPending }

// Kind implements Result.
func (Scored) Kind() ResultKind { return ResultScored }

// MarshalJSON adds the kind discriminator.
func (p Pending) MarshalJSON() ([]byte, error) {
	type plain Pending

	return json.Marshal(struct {
		Kind ResultKind `json:"kind"`
		plain
	}{ResultPending, plain(p)})
}

// MarshalJSON adds the kind discriminator.
func (s Scored) MarshalJSON() ([]byte, error) {
	type plain Scored

	return json.Marshal(struct {
		Kind ResultKind `json:"kind"`
		plain
	}{ResultScored, plain(s)})
}

// Validate checks the score is within 0..100 and an explanation is present.
func (s Scored) Validate() error {
	if math.IsNaN(s.RiskScore) || s.RiskScore < 0 || s.RiskScore > 100 {
		return fmt.Errorf("%w: risk_score %v is outside 0-100", ErrInvalidScore, s.RiskScore)
	}

	if strings.TrimSpace(s.Explanation) == "" {
		return fmt.Errorf("%w: explanation is empty", ErrInvalidScore)
	}

	return nil
}

// MarshalResult encodes r for storage. A nil result encodes to nil.
func MarshalResult(r Result) ([]byte, error) {
	if r == nil {
		return nil, nil
	}

	return json.Marshal(r)
}

// UnmarshalResult decodes a stored result. Empty input and JSON null decode
// to a nil result.
func UnmarshalResult(data []byte) (Result, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var head struct {
		Kind ResultKind `json:"kind"`
	}

	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode task result: %w", err)
	}

	switch head.Kind {
	case ResultPending:
		var p Pending
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode pending result: %w", err)
		}

		return p, nil
	case ResultScored:
		var s Scored
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode scored result: %w", err)
		}

		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownResultKind, head.Kind)
	}
}
