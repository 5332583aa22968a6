/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package tasks

import (
	"fmt"
	"strings"

	"github.com/humaidq/labrisk/catalog"
	"github.com/humaidq/labrisk/utils"
)

// ResponseInstruction tells the scorer which JSON shape to return.
const ResponseInstruction = `Return only JSON like: {"risk_score": <0-100>, "explanation": "..."}`

// ComposePrompt builds the scoring prompt for cond from the symptom answers
// and the assembled marker context.
func ComposePrompt(cond *catalog.HealthCondition, answers []SymptomAnswer, markerContext string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Patient risk review for %s (%s).\n", cond.Label(), cond.ConditionID)

	if bg := strings.TrimSpace(cond.Background); bg != "" {
		fmt.Fprintf(&sb, "Condition background: %s\n", bg)
	}

	if comment := strings.TrimSpace(cond.ExpertComment); comment != "" {
		fmt.Fprintf(&sb, "Expert commentary: %s\n", comment)
	}

	if len(answers) > 0 {
		sb.WriteString("\nQuiz responses:\n")

		for _, a := range answers {
			sb.WriteString(FormatAnswer(a))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nMarkers analysis:\n")
	sb.WriteString(markerContext)

	if !strings.HasSuffix(markerContext, "\n") {
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(ResponseInstruction)

	return sb.String()
}

// FormatAnswer renders an answer as "Fatigue: Yes (after exercise)".
func FormatAnswer(a SymptomAnswer) string {
	answer := utils.DisplayName(a.Answer)
	if answer == "" {
		answer = "Unanswered"
	}

	line := strings.TrimSpace(a.Symptom) + ": " + answer
	if info := strings.TrimSpace(a.Info); info != "" {
		line += " (" + info + ")"
	}

	return line
}
