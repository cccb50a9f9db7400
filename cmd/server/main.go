// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

// Package main is the cubegate server.
//
// Cubegate answers JSON requests for cube cells, element listings and
// form-driven tables by translating them into PALO protocol calls on a
// small pool of reused sessions.
//
// Configuration is layered with koanf v2 (highest priority wins):
//   - environment variables (PALO_SERVER, PALO_ALLOW_SET_DATA, HTTP_PORT, ...)
//   - config.yaml, or the file named by CONFIG_PATH
//   - built-in defaults
//
// Running without a subcommand serves the API. "cubegate token" prints an
// admin bearer token signed with security.admin_jwt_secret.
//
// SIGINT and SIGTERM stop the listener, drain in-flight requests and log
// out pooled PALO sessions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cubegate",
		Short:         "OLAP access gateway for PALO servers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the gateway API (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context())
			},
		},
		newTokenCmd(),
	)
	return root
}
