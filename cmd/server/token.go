// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cubegate/internal/auth"
	"github.com/tomtom215/cubegate/internal/config"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an admin bearer token for the cache and diagnostics routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cfg.Security.AdminJWTSecret == "" {
				return errors.New("security.admin_jwt_secret is not set")
			}
			m, err := auth.NewJWTManager(cfg.Security.AdminJWTSecret, ttl)
			if err != nil {
				return err
			}
			token, err := m.GenerateToken(subject, auth.RoleAdmin)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
