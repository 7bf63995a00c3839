// Package migrations embeds SQL migration files.
package migrations

import "embed"

// PlatformFS contains the platform database migrations.
//
//go:embed platform/*.sql
var PlatformFS embed.FS

// PlatformDir is the directory within PlatformFS where migrations live.
const PlatformDir = "platform"
