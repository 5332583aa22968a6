/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package scoring

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/humaidq/labrisk/matcher"
	"github.com/humaidq/labrisk/tasks"
	"github.com/humaidq/labrisk/utils"
)

var codeFence = regexp.MustCompile("(?i)```(?:json)?")

// StripCodeFences removes Markdown code fences around a model reply.
func StripCodeFences(content string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(content, ""))
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	*f = flexString(n.String())

	return nil
}

// ParseScore decodes a {"risk_score", "explanation"} reply. The score may be a
// number or a numeric string and must lie within 0..100.
func ParseScore(content string) (tasks.Scored, error) {
	var reply struct {
		RiskScore   *flexString `json:"risk_score"`
		Explanation string      `json:"explanation"`
	}

	if err := decodeJSON(content, '{', '}', &reply); err != nil {
		return tasks.Scored{}, err
	}

	if reply.RiskScore == nil {
		return tasks.Scored{}, fmt.Errorf("%w: risk_score is missing", ErrMalformedResponse)
	}

	score, err := utils.ParseNumber(string(*reply.RiskScore))
	if err != nil {
		return tasks.Scored{}, fmt.Errorf("%w: risk_score: %w", ErrMalformedResponse, err)
	}

	scored := tasks.Scored{RiskScore: score, Explanation: strings.TrimSpace(reply.Explanation)}
	if err := scored.Validate(); err != nil {
		return tasks.Scored{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return scored, nil
}

// ParseSuggestions decodes a list of suggested conditions.
func ParseSuggestions(content string) ([]matcher.Candidate, error) {
	var reply []struct {
		ConditionID string     `json:"condition_id"`
		LevelOfRisk flexString `json:"level_of_risk"`
		Explanation string     `json:"explanation"`
	}

	if err := decodeJSON(content, '[', ']', &reply); err != nil {
		return nil, err
	}

	out := make([]matcher.Candidate, 0, len(reply))
	for _, r := range reply {
		out = append(out, matcher.Candidate{
			ConditionID: r.ConditionID,
			LevelOfRisk: string(r.LevelOfRisk),
			Explanation: r.Explanation,
		})
	}

	return out, nil
}

// decodeJSON strips code fences and decodes content into v. When the reply
// wraps the JSON in prose, the outermost openCh..closeCh span is tried as well.
func decodeJSON(content string, openCh, closeCh byte, v any) error {
	cleaned := StripCodeFences(content)
	if cleaned == "" {
		return ErrEmptyResponse
	}

	err := json.Unmarshal([]byte(cleaned), v)
	if err == nil {
		return nil
	}

	start := strings.IndexByte(cleaned, openCh)
	end := strings.LastIndexByte(cleaned, closeCh)

	if start >= 0 && end > start {
		if err2 := json.Unmarshal([]byte(cleaned[start:end+1]), v); err2 == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
}
