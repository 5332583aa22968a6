/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"

	"github.com/flamego/flamego"

	"github.com/humaidq/labrisk/brief"
	"github.com/humaidq/labrisk/catalog"
	"github.com/humaidq/labrisk/matcher"
)

type conditionSummary struct {
	ConditionID string `json:"condition_id"`
	DisplayName string `json:"display_name"`
}

type matchRequest struct {
	Candidates []matcher.Candidate `json:"candidates"`
}

type matchResponse struct {
	Matched []matcher.Matched `json:"matched"`
	Other   []matcher.Other   `json:"other"`
}

func newMatchResponse(matched []matcher.Matched, other []matcher.Other) matchResponse {
	if matched == nil {
		matched = []matcher.Matched{}
	}

	if other == nil {
		other = []matcher.Other{}
	}

	return matchResponse{Matched: matched, Other: other}
}

// ListConditions returns condition ids and display names.
func (s *Service) ListConditions(c flamego.Context) {
	conditions, err := s.Catalog.ListConditions(c.Request().Context())
	if err != nil {
		writeError(c, err)
		return
	}

	summaries := make([]conditionSummary, 0, len(conditions))
	for i := range conditions {
		summaries = append(summaries, conditionSummary{
			ConditionID: conditions[i].ConditionID,
			DisplayName: conditions[i].Label(),
		})
	}

	writeJSON(c, http.StatusOK, map[string]interface{}{"conditions": summaries})
}

// GetCondition returns one condition with its markers and quiz symptoms.
func (s *Service) GetCondition(c flamego.Context) {
	cond, err := s.Catalog.GetCondition(c.Request().Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, cond)
}

// MatchConditions maps free-form candidate ids onto catalog conditions.
func (s *Service) MatchConditions(c flamego.Context) {
	var req matchRequest
	if err := decodeBody(c, &req); err != nil {
		writeError(c, err)
		return
	}

	conditions, err := s.Catalog.ListConditions(c.Request().Context())
	if err != nil {
		writeError(c, err)
		return
	}

	matched, other := s.Matcher.Match(req.Candidates, catalog.ConditionIDs(conditions))

	writeJSON(c, http.StatusOK, newMatchResponse(matched, other))
}

// ConditionContext returns the marker context text for a condition using the
// caller's latest observations.
func (s *Service) ConditionContext(c flamego.Context, user UserID) {
	ctx := c.Request().Context()

	unitSystem, err := s.unitSystemParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	cond, err := s.Catalog.GetCondition(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	obs, err := s.Observations.GetLatestObservations(ctx, user.UUID())
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]string{
		"condition_id": cond.ConditionID,
		"context":      brief.BuildContext(cond, obs, obs.UnitSystems(), unitSystem),
	})
}

// SuggestConditions asks the model which catalog conditions fit the caller's
// latest observations and returns the matched and unmatched suggestions.
func (s *Service) SuggestConditions(c flamego.Context, user UserID) {
	if s.Suggester == nil {
		writeError(c, errSuggestionsDisabled)
		return
	}

	ctx := c.Request().Context()

	obs, err := s.Observations.GetLatestObservations(ctx, user.UUID())
	if err != nil {
		writeError(c, err)
		return
	}

	markers, err := s.Catalog.ListMarkers(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	conditions, err := s.Catalog.ListConditions(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	ids := catalog.ConditionIDs(conditions)
	analysis := brief.BuildAnalysis(markers, obs, obs.UnitSystems(), s.defaultUnitSystem())

	candidates, err := s.Suggester.SuggestConditions(ctx, analysis, ids)
	if err != nil {
		writeError(c, err)
		return
	}

	matched, other := s.Matcher.Match(candidates, ids)

	writeJSON(c, http.StatusOK, newMatchResponse(matched, other))
}
