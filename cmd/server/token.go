// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/tomtom215/geoimport/internal/auth"
	"github.com/tomtom215/geoimport/internal/config"
)

// runToken implements "geoimport token": it mints a JWT signed with the
// configured secret, for operators and scripted clients.
func runToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	user := fs.String("user", "", "username (required)")
	role := fs.String("role", "", "role; defaults to security.default_role")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(stderr, "load configuration: %v\n", err)
		return 1
	}
	return mintToken(&cfg.Security, *user, *role, stdout, stderr)
}

func mintToken(sec *config.SecurityConfig, user, role string, stdout, stderr io.Writer) int {
	if sec.AuthMode != config.AuthModeJWT {
		fmt.Fprintf(stderr, "tokens are only used with auth mode %q (configured: %q)\n", config.AuthModeJWT, sec.AuthMode)
		return 1
	}
	if role == "" {
		role = sec.DefaultRole
	}
	jwt, err := auth.NewJWTManager(sec)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	token, err := jwt.GenerateToken(user, role)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, token)
	return 0
}
