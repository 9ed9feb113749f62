package migrations

import "embed"

// FS — встроенные SQL-миграции, применяются на старте через goose.
//
//go:embed *.sql
var FS embed.FS
