/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/labrisk/catalog"
	"github.com/humaidq/labrisk/db"
	"github.com/humaidq/labrisk/utils"
)

var CmdObserve = &cli.Command{
	Name:  "observe",
	Usage: "Record a marker value for a user",
	Flags: []cli.Flag{
		databaseURLFlag(),
		&cli.StringFlag{
			Name:     "user",
			Usage:    "user id (UUID)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "marker",
			Usage:    "marker name, e.g. ferritin",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "value",
			Usage:    "observed value",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "unit-system",
			Value: string(catalog.Conventional),
			Usage: "conventional or international",
		},
		&cli.StringFlag{
			Name:  "recorded-at",
			Usage: "observation time in RFC 3339 (defaults to now)",
		},
	},
	Action: observe,
}

type observation struct {
	userID     uuid.UUID
	marker     string
	value      float64
	unitSystem catalog.UnitSystem
	recordedAt time.Time
}

func parseObservation(user, marker, value, unitSystem, recordedAt string) (*observation, error) {
	id, err := uuid.Parse(strings.TrimSpace(user))
	if err != nil || id == uuid.Nil {
		return nil, errUserRequired
	}

	v, err := utils.ParseNumber(value)
	if err != nil {
		return nil, err
	}

	u, err := catalog.ParseUnitSystem(unitSystem)
	if err != nil {
		return nil, err
	}

	obs := &observation{
		userID:     id,
		marker:     strings.TrimSpace(marker),
		value:      v,
		unitSystem: u,
	}

	if raw := strings.TrimSpace(recordedAt); raw != "" {
		obs.recordedAt, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errInvalidRecordedAt
		}
	}

	return obs, nil
}

func observe(ctx context.Context, cmd *cli.Command) error {
	obs, err := parseObservation(
		cmd.String("user"),
		cmd.String("marker"),
		cmd.String("value"),
		cmd.String("unit-system"),
		cmd.String("recorded-at"),
	)
	if err != nil {
		return err
	}

	return withDatabase(ctx, cmd, func(ctx context.Context) error {
		marker, err := db.Catalog{}.GetMarker(ctx, obs.marker)
		if err != nil {
			return err
		}

		record, err := db.Observations{}.SaveObservation(ctx, obs.userID, marker.Name, obs.value, obs.unitSystem, obs.recordedAt)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.Root().Writer, "Recorded %s = %s (%s) at %s\n",
			record.MarkerName, utils.FormatNumber(record.Value), record.UnitSystem, record.RecordedAt.Format(time.RFC3339))

		return nil
	})
}
