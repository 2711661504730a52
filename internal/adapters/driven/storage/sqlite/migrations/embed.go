// Package migrations holds the versioned schema of the bookchat database.
package migrations

import "embed"

// FS contains the .up.sql and .down.sql files, applied in version order.
//
//go:embed *.sql
var FS embed.FS
