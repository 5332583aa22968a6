/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labrisk/cmd"
	"github.com/humaidq/labrisk/logging"
)

func main() {
	app := &cli.Command{
		Name:  "labrisk",
		Usage: "LabRisk - Lab marker condition risk service",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdMigrate,
			cmd.CmdCatalog,
			cmd.CmdObserve,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logging.Logger(logging.SourceApp).Fatal("Command failed", "error", err)
	}
}
