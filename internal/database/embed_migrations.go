package database

import "embed"

// migrationFS embeds the SQL migration files. Each data-access service
// owns one subdirectory and applies only its own set.
//
//go:embed migrations/users/*.sql migrations/tokens/*.sql
var migrationFS embed.FS
