package revieweat

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

var OpenSessionSQL = `UPDATE "users" AS "usr"
SET
	"session_token" = ?,
	"is_http_only" = ?,
	"is_secure" = ?,
	"session_expires_at" = ?,
	"last_login_at" = ?,
	"updated_at" = ?
WHERE
	"usr"."email" = ?;`

var CloseSessionSQL = `UPDATE "users" AS "usr"
SET
	"session_token" = NULL,
	"session_expires_at" = NULL,
	"updated_at" = ?
WHERE
	"usr"."email" = ?;`

// SweepExpiredSessionsSQL only matches rows whose expiry already passed,
// so a concurrent login writing fresh values is never clobbered.
var SweepExpiredSessionsSQL = `UPDATE "users" AS "usr"
SET
	"session_token" = NULL,
	"session_expires_at" = NULL,
	"updated_at" = ?
WHERE
	"usr"."session_token" IS NOT NULL
	AND "usr"."session_expires_at" IS NOT NULL
	AND "usr"."session_expires_at" <= ?;`

type Users interface {
	UserFinder
	SessionStore

	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSucccessfulLogin(ctx context.Context, user *User) error
	TrackSucccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error
}

type users struct {
	db *bun.DB
}

var (
	_ Users        = (*users)(nil)
	_ UserTracker  = (*users)(nil)
	_ SessionStore = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newUserNotFound(fmt.Sprintf("%d", id))
		}
		return nil, wrapStorageError(err, "failed to load user by id")
	}

	return record, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		return nil, newUserNotFound(identifier)
	}

	for _, opt := range options {
		record := &User{}
		err := tx.NewSelect().
			Model(record).
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, wrapStorageError(err, "failed to load user by identifier")
		}

		return record, nil
	}

	return nil, newUserNotFound(identifier)
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	_, err := tx.NewInsert().
		Model(user).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return user, nil
}

func (a *users) TrackSucccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSucccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSucccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	// NOTE: Updating using the ORM fails due to a bug, it wont reset
	// login_attempt_at, login_attempts fields.
	now := time.Now().UTC()
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"last_login_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?);
	`, now, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	now := time.Now().UTC()
	_, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("login_attempts = ?", user.LoginAttempts+1).
		Set("login_attempt_at = ?", now).
		Where("id = ?", user.ID).
		Exec(ctx)

	return err
}

func (a *users) OpenSession(ctx context.Context, email, token string, expiresAt time.Time, flags SessionFlags) error {
	now := time.Now().UTC()
	_, err := a.db.NewRaw(
		OpenSessionSQL,
		token, flags.HTTPOnly, flags.Secure, expiresAt.UTC(), now, now, email,
	).Exec(ctx)

	return err
}

func (a *users) CloseSession(ctx context.Context, email string) error {
	now := time.Now().UTC()
	_, err := a.db.NewRaw(CloseSessionSQL, now, email).Exec(ctx)
	return err
}

func (a *users) SweepExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := a.db.NewRaw(SweepExpiredSessionsSQL, now.UTC(), now.UTC()).Exec(ctx)
	if err != nil {
		return 0, wrapStorageError(err, "failed to sweep expired sessions")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, wrapStorageError(err, "failed to count swept sessions")
	}

	return int(affected), nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func newUserNotFound(identifier string) error {
	return errors.New("identity not found", errors.CategoryNotFound).
		WithTextCode(TextCodeIdentityNotFound).
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}
