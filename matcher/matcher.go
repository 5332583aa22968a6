/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package matcher maps free-form condition identifiers onto the canonical
// condition ids of the catalog.
package matcher

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/humaidq/labrisk/utils"
)

// DefaultCutoff is the minimum similarity accepted for a fuzzy match.
const DefaultCutoff = 0.6

// Candidate is a suggested condition as produced by an upstream suggestion step.
type Candidate struct {
	ConditionID string `json:"condition_id"`
	LevelOfRisk string `json:"level_of_risk,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// Suggestion is either a Matched or an Other.
type Suggestion interface {
	// OriginalID is the candidate identifier exactly as received.
	OriginalID() string
	isSuggestion()
}

// Matched is a candidate resolved to a canonical condition id.
type Matched struct {
	CanonicalID string  `json:"condition_id"`
	Original    string  `json:"original_id"`
	LevelOfRisk string  `json:"level_of_risk,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
	Similarity  float64 `json:"similarity"`
}

// Other is a candidate that did not match any canonical id.
type Other struct {
	DisplayName string `json:"display_name"`
	Original    string `json:"original_id"`
	LevelOfRisk string `json:"level_of_risk,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

func (m Matched) OriginalID() string { return m.Original }
func (Matched) isSuggestion()        {}

func (o Other) OriginalID() string { return o.Original }
func (Other) isSuggestion()        {}

// SimilarityFunc scores two identifiers between 0 and 1.
type SimilarityFunc func(a, b string) float64

// Matcher resolves candidates against canonical ids.
type Matcher struct {
	cutoff     float64
	similarity SimilarityFunc
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithCutoff sets the minimum similarity for a fuzzy match.
func WithCutoff(cutoff float64) Option {
	return func(m *Matcher) {
		m.cutoff = cutoff
	}
}

// WithSimilarity replaces the similarity measure.
func WithSimilarity(fn SimilarityFunc) Option {
	return func(m *Matcher) {
		if fn != nil {
			m.similarity = fn
		}
	}
}

// New returns a Matcher using the Levenshtein ratio and DefaultCutoff.
func New(opts ...Option) *Matcher {
	m := &Matcher{cutoff: DefaultCutoff, similarity: LevenshteinRatio}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Cutoff returns the configured fuzzy match threshold.
func (m *Matcher) Cutoff() float64 {
	return m.cutoff
}

// LevenshteinRatio is 1 - distance/max(len) over the separator-collapsed forms
// of a and b, counted in runes.
func LevenshteinRatio(a, b string) float64 {
	a, b = utils.CollapseSeparators(a), utils.CollapseSeparators(b)
	if a == b {
		return 1
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}

	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Suggest resolves every candidate with an identifier, in input order.
func (m *Matcher) Suggest(candidates []Candidate, canonicalIDs []string) []Suggestion {
	ids := canonicalSet(canonicalIDs)
	out := make([]Suggestion, 0, len(candidates))

	for _, c := range candidates {
		normalized := utils.NormalizeIdentifier(c.ConditionID)
		if normalized == "" {
			continue
		}

		if id, score, ok := m.best(normalized, ids); ok {
			out = append(out, Matched{
				CanonicalID: id,
				Original:    c.ConditionID,
				LevelOfRisk: c.LevelOfRisk,
				Explanation: c.Explanation,
				Similarity:  score,
			})

			continue
		}

		out = append(out, Other{
			DisplayName: utils.DisplayName(c.ConditionID),
			Original:    c.ConditionID,
			LevelOfRisk: c.LevelOfRisk,
			Explanation: c.Explanation,
		})
	}

	return out
}

// Match partitions the result of Suggest into matched and other candidates.
func (m *Matcher) Match(candidates []Candidate, canonicalIDs []string) ([]Matched, []Other) {
	var (
		matched []Matched
		other   []Other
	)

	for _, s := range m.Suggest(candidates, canonicalIDs) {
		switch v := s.(type) {
		case Matched:
			matched = append(matched, v)
		case Other:
			other = append(other, v)
		}
	}

	return matched, other
}

// best returns the canonical id for normalized. ids must be sorted so that the
// strict comparison leaves ties with the lower id.
func (m *Matcher) best(normalized string, ids []string) (string, float64, bool) {
	for _, id := range ids {
		if utils.NormalizeIdentifier(id) == normalized {
			return id, 1, true
		}
	}

	var (
		bestID    string
		bestScore = -1.0
	)

	for _, id := range ids {
		if score := m.similarity(normalized, id); score > bestScore {
			bestID, bestScore = id, score
		}
	}

	if bestID == "" || bestScore < m.cutoff {
		return "", 0, false
	}

	return bestID, bestScore, true
}

func canonicalSet(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			out = append(out, id)
		}
	}

	slices.Sort(out)

	return slices.Compact(out)
}
