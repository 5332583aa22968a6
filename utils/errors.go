/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import "errors"

var (
	errEmptyNumber   = errors.New("empty number")
	errInvalidNumber = errors.New("invalid number")
	errEmptySlug     = errors.New("name has no slug characters")
)
