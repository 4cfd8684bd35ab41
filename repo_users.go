package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Users is the bun backed UserStore. The Tx variants let callers compose
// several writes in one transaction.
type Users interface {
	UserStore

	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
}

type users struct {
	base repository.Repository[*User]
	db   *bun.DB
	now  func() time.Time
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	base := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		base: base,
		db:   db,
		now:  time.Now,
	}
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	email = NormalizeEmail(email)
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapNotFound(err, map[string]any{"email": email})
	}
	return record, nil
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record, err := a.base.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapNotFound(err, map[string]any{"id": id.String()})
	}
	return record, nil
}

func (a *users) List(ctx context.Context) ([]*User, error) {
	records := make([]*User, 0)
	err := a.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at ASC").
		OrderExpr("?TableAlias.email ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list users")
	}
	return records, nil
}

// ListByRole matches role against the JSON array in the roles column.
// Postgres uses jsonb containment, sqlite expands the array with
// json_each.
func (a *users) ListByRole(ctx context.Context, role UserRole) ([]*User, error) {
	records := make([]*User, 0)
	q := a.db.NewSelect().Model(&records)

	if a.db.Dialect().Name() == dialect.PG {
		needle, err := json.Marshal([]UserRole{role})
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to encode role")
		}
		q = q.Where("?TableAlias.roles @> ?::jsonb", string(needle))
	} else {
		q = q.Where("EXISTS (SELECT 1 FROM json_each(?TableAlias.roles) AS r WHERE r.value = ?)", role)
	}

	err := q.
		OrderExpr("?TableAlias.created_at ASC").
		OrderExpr("?TableAlias.email ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list users by role").
			WithMetadata(map[string]any{"role": role})
	}
	return records, nil
}

func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	return a.CreateTx(ctx, a.db, user)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	record := user.Clone()
	prepareUserDefaults(record, a.now())

	created, err := a.base.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, withCause(ErrDuplicateEmail, err, map[string]any{"email": record.Email})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create user")
	}
	return created, nil
}

func (a *users) Update(ctx context.Context, user *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, user)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	record := user.Clone()
	record.Email = NormalizeEmail(record.Email)
	now := a.now().UTC()
	record.UpdatedAt = &now

	updated, err := a.base.UpdateTx(ctx, tx, record, repository.UpdateByID(record.ID.String()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, withCause(ErrDuplicateEmail, err, map[string]any{"email": record.Email})
		}
		return nil, mapNotFound(err, map[string]any{"id": record.ID.String()})
	}
	return updated, nil
}

func (a *users) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return withCause(ErrUserNotFound, nil, map[string]any{"id": id.String()})
	}

	return nil
}

func prepareUserDefaults(record *User, now time.Time) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if len(record.Roles) == 0 {
		record.Roles = []UserRole{RoleUser}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now = now.UTC()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}
}

func mapNotFound(err error, meta map[string]any) error {
	if err == nil {
		return nil
	}
	if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) || errors.IsNotFound(err) {
		return withCause(ErrUserNotFound, err, meta)
	}
	return errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user")
}
