/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9]+`)
	separatorChars = regexp.MustCompile(`[\s_\-./]+`)
)

// Slug converts a display name into its canonical lower_snake_case form.
// "Iron Deficiency Anemia" becomes "iron_deficiency_anemia".
func Slug(name string) (string, error) {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "", errEmptySlug
	}

	return slug, nil
}

// NormalizeIdentifier lowercases and trims an identifier.
func NormalizeIdentifier(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// CollapseSeparators lowercases id and joins its words with single underscores.
func CollapseSeparators(id string) string {
	return strings.Trim(separatorChars.ReplaceAllString(NormalizeIdentifier(id), "_"), "_")
}

// DisplayName turns an identifier such as "unknown_condition_xyz" into a
// human-readable title, "Unknown Condition Xyz".
func DisplayName(id string) string {
	words := strings.Fields(separatorChars.ReplaceAllString(strings.TrimSpace(id), " "))

	return cases.Title(language.Und).String(strings.Join(words, " "))
}
