package auth

import (
	"embed"
	"io/fs"
	"path"

	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/migrate"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package, one
// directory per dialect
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// migrationsDir maps a bun dialect to its migrations directory
func migrationsDir(name dialect.Name) string {
	if name == dialect.PG {
		return path.Join("data/sql/migrations", "postgres")
	}
	return path.Join("data/sql/migrations", "sqlite")
}

// NewMigrations discovers the embedded SQL migrations of a dialect
func NewMigrations(name dialect.Name) (*migrate.Migrations, error) {
	sub, err := fs.Sub(migrationsFS, migrationsDir(name))
	if err != nil {
		return nil, err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return nil, err
	}
	return migrations, nil
}
