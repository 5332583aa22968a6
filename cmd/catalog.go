/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labrisk/catalog"
	"github.com/humaidq/labrisk/db"
)

var CmdCatalog = &cli.Command{
	Name:  "catalog",
	Usage: "Manage the marker and condition catalog",
	Flags: []cli.Flag{databaseURLFlag()},
	Commands: []*cli.Command{
		{
			Name:   "seed",
			Usage:  "Load the built-in catalog into the database",
			Action: catalogSeed,
		},
		{
			Name:      "import",
			Usage:     "Load a YAML catalog file into the database",
			ArgsUsage: "<file>",
			Action:    catalogImport,
		},
		{
			Name:      "import-markers-csv",
			Usage:     "Load markers from a reference spreadsheet CSV export into the database",
			ArgsUsage: "<file>",
			Action:    catalogImportMarkersCSV,
		},
		{
			Name:  "list",
			Usage: "List conditions with their low and high markers",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "file",
					Usage: "list a YAML catalog file instead of the database",
				},
			},
			Action: catalogList,
		},
	},
}

// withDatabase connects, migrates and runs fn, closing the pool afterwards.
func withDatabase(ctx context.Context, cmd *cli.Command, fn func(ctx context.Context) error) error {
	databaseURL := cmd.String("database-url")
	if databaseURL == "" {
		return errDatabaseURLRequired
	}

	if err := db.Init(ctx, databaseURL); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.SyncSchema(ctx, databaseURL); err != nil {
		return fmt.Errorf("failed to sync schema: %w", err)
	}

	return fn(ctx)
}

func syncFromCatalog(ctx context.Context, w io.Writer, src catalog.Catalog) error {
	markers, err := src.ListMarkers(ctx)
	if err != nil {
		return err
	}

	conditions, err := src.ListConditions(ctx)
	if err != nil {
		return err
	}

	if err := db.SyncCatalog(ctx, markers, conditions); err != nil {
		return err
	}

	fmt.Fprintf(w, "Synced %d markers and %d conditions\n", len(markers), len(conditions))

	return nil
}

func catalogSeed(ctx context.Context, cmd *cli.Command) error {
	seed, err := catalog.Seed()
	if err != nil {
		return err
	}

	return withDatabase(ctx, cmd, func(ctx context.Context) error {
		return syncFromCatalog(ctx, cmd.Root().Writer, seed)
	})
}

func catalogImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errCatalogFileRequired
	}

	file, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	return withDatabase(ctx, cmd, func(ctx context.Context) error {
		return syncFromCatalog(ctx, cmd.Root().Writer, file)
	})
}

func catalogImportMarkersCSV(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errCatalogFileRequired
	}

	markers, err := readMarkersCSVFile(path)
	if err != nil {
		return err
	}

	return withDatabase(ctx, cmd, func(ctx context.Context) error {
		if err := db.SyncCatalog(ctx, markers, nil); err != nil {
			return err
		}

		fmt.Fprintf(cmd.Root().Writer, "Synced %d markers\n", len(markers))

		return nil
	})
}

func readMarkersCSVFile(path string) ([]catalog.Marker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open marker CSV: %w", err)
	}

	defer func() {
		if err := f.Close(); err != nil {
			appLogger.Warn("Failed to close marker CSV", "error", err)
		}
	}()

	return catalog.ReadMarkersCSV(f)
}

func catalogList(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String("file"); path != "" {
		file, err := catalog.LoadFile(path)
		if err != nil {
			return err
		}

		return writeConditions(ctx, cmd.Root().Writer, file)
	}

	return withDatabase(ctx, cmd, func(ctx context.Context) error {
		return writeConditions(ctx, cmd.Root().Writer, db.Catalog{})
	})
}

func writeConditions(ctx context.Context, w io.Writer, src catalog.Catalog) error {
	conditions, err := src.ListConditions(ctx)
	if err != nil {
		return err
	}

	for _, c := range conditions {
		fmt.Fprintf(w, "%s\t%s\tlow: %s\thigh: %s\n",
			c.ConditionID, c.Label(), joinMarkerNames(c.AssociatedLow), joinMarkerNames(c.AssociatedHigh))
	}

	return nil
}

func joinMarkerNames(markers []catalog.Marker) string {
	if len(markers) == 0 {
		return "-"
	}

	names := make([]string, 0, len(markers))
	for _, m := range markers {
		names = append(names, m.Name)
	}

	return strings.Join(names, ", ")
}
