// Package migrations embeds the relay's SQL schema into the binary.
package migrations

import "embed"

// FS holds every *.sql migration in this directory.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory within FS that holds the migrations.
const Dir = "."
