// Package migrations ships the SQL schemas inside the binary and
// applies them at startup: the strategies catalog table for PostgreSQL
// and the bars time-series table for ClickHouse.
package migrations

import "embed"

//go:embed postgres/*.sql
var PostgresFS embed.FS

//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
