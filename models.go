package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Roles         []UserRole `bun:"roles" json:"roles,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasRole reports whether role was granted to the user
func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddRoles grants roles without dropping the ones already held
func (u *User) AddRoles(roles ...UserRole) *User {
	u.Roles = mergeRoles(u.Roles, roles)
	return u
}

// Clone returns a deep copy that shares no memory with u
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Roles != nil {
		c.Roles = append([]UserRole(nil), u.Roles...)
	}
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		c.CreatedAt = &t
	}
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// View returns the sanitized representation of the user
func (u *User) View() UserView {
	v := UserView{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Roles: append([]UserRole{}, u.Roles...),
	}
	if u.CreatedAt != nil {
		v.CreatedAt = *u.CreatedAt
	}
	if u.UpdatedAt != nil {
		v.UpdatedAt = *u.UpdatedAt
	}
	return v
}

// UserView is what leaves the package: it never carries the password hash
type UserView struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Roles     []UserRole `json:"roles"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// UserUpdate is a partial update, nil fields are left untouched
type UserUpdate struct {
	Name     *string  `json:"name,omitempty"`
	Email    *string  `json:"email,omitempty"`
	Password *string  `json:"password,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// NormalizeEmail trims and lower-cases an email so lookups and the
// unique index agree
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
