package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Migrate(ctx context.Context) error
	MigrationStatus(ctx context.Context) (migrate.MigrationSlice, error)
}

type mngr struct {
	db    *bun.DB
	users Users
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:    db,
		users: NewUsersRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository database should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

// Migrate applies the embedded migrations that are not yet recorded in
// the bun_migrations table. The migration lock keeps concurrent
// instances from applying the same group twice.
func (m mngr) Migrate(ctx context.Context) error {
	migrator, err := m.migrator(ctx)
	if err != nil {
		return err
	}

	if err := migrator.Lock(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to acquire migration lock")
	}
	defer func() {
		if err := migrator.Unlock(ctx); err != nil {
			log.Printf("failed to release migration lock: %v", err)
		}
	}()

	if _, err := migrator.Migrate(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "migration failed").
			WithMetadata(map[string]any{"dialect": m.db.Dialect().Name().String()})
	}
	return nil
}

// MigrationStatus lists every known migration. Applied ones carry the
// group they were applied in.
func (m mngr) MigrationStatus(ctx context.Context) (migrate.MigrationSlice, error) {
	migrator, err := m.migrator(ctx)
	if err != nil {
		return nil, err
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read migration status")
	}
	return ms, nil
}

func (m mngr) migrator(ctx context.Context) (*migrate.Migrator, error) {
	migrations, err := NewMigrations(m.db.Dialect().Name())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read migrations")
	}

	// a migration that fails stays pending
	migrator := migrate.NewMigrator(m.db, migrations, migrate.WithMarkAppliedOnSuccess(true))
	if err := migrator.Init(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize migrations")
	}
	return migrator, nil
}
