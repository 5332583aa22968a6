/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"strings"

	"github.com/flamego/flamego"
	"github.com/google/uuid"
)

// userIDHeader carries the caller's identity, set by the fronting proxy.
const userIDHeader = "X-User-ID"

// UserID is the authenticated caller, injected into handlers by RequireUser.
type UserID uuid.UUID

// UUID returns the underlying identifier.
func (u UserID) UUID() uuid.UUID {
	return uuid.UUID(u)
}

// RequireUser rejects requests without a valid X-User-ID header and maps the
// parsed UserID for downstream handlers.
func RequireUser(c flamego.Context) {
	raw := strings.TrimSpace(c.Request().Header.Get(userIDHeader))
	if raw == "" {
		writeError(c, errUserIDMissing)
		return
	}

	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		writeError(c, errUserIDInvalid)
		return
	}

	c.Map(UserID(id))
}
