// Package db embeds the storefront schema so a fresh database can be
// bootstrapped without shipping migration files alongside the binary.
package db

import _ "embed"

// Schema holds the DDL for the games, coupons, purchases, donations,
// verified_sessions, and api_keys tables.
//
//go:embed migrations/001_schema.sql
var Schema string
