// Package migrations embeds SQL migration files into the binary.
//
// The files are applied with database.DB.Migrate(ctx, migrations.FS).
package migrations

import "embed"

// FS holds every migration file at its root.
//
//go:embed *.sql
var FS embed.FS
