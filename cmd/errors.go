/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("database-url is required (set via --database-url or DATABASE_URL env var)")
	errMigrationNameRequired = errors.New("migration name is required")
	errCatalogFileRequired   = errors.New("catalog file path is required")
	errInvalidMatchCutoff    = errors.New("match-cutoff must be between 0 and 1")
	errUserRequired          = errors.New("--user must be a UUID")
	errInvalidRecordedAt     = errors.New("--recorded-at must be RFC 3339")
)
