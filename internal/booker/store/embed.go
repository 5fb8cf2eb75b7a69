// Package store holds the booker registry schema shared by the PostgreSQL
// stores.
package store

import _ "embed"

// Schema is the DDL for every booker registry table. Statements are
// idempotent.
//
//go:embed schema.sql
var Schema string
