package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wuwenbin0122/authflow/internal/apperr"
	"github.com/wuwenbin0122/authflow/internal/models"
)

const (
	insertUserSQL = `INSERT INTO users (user_name, user_first_name, user_last_name, user_email, user_password_hash)
VALUES ($1, $2, $3, $4, $5)`

	selectUserByEmailSQL = `SELECT user_pk, user_name, user_first_name, user_last_name, user_email, user_password_hash, user_created_at
FROM users WHERE user_email = $1 LIMIT 1`
)

// UserStore is the gateway to the users table. Every call checks out its own
// connection and returns it before exiting.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateAccount inserts one user inside a transaction and returns the number
// of rows inserted. Unique violations come back as *apperr.DuplicateError,
// everything else as apperr.ErrServiceUnavailable.
func (s *UserStore) CreateAccount(ctx context.Context, account models.NewAccount) (int64, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, apperr.Unavailable("users: acquire connection", err)
	}
	defer conn.Close()

	var inserted int64
	err = withTx(ctx, conn, nil, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertUserSQL,
			account.Username,
			account.FirstName,
			account.LastName,
			account.Email,
			account.PasswordHash,
		)
		if err != nil {
			return err
		}
		inserted, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if inserted != 1 {
			return fmt.Errorf("rows affected: expected 1, got %d", inserted)
		}
		return nil
	})
	if err != nil {
		return 0, classify("users: create account", err)
	}

	return inserted, nil
}

// FindByEmail returns (nil, nil) when no user has the address.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, apperr.Unavailable("users: acquire connection", err)
	}
	defer conn.Close()

	var user models.User
	err = conn.QueryRowContext(ctx, selectUserByEmailSQL, email).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Unavailable("users: find by email", err)
	}

	return &user, nil
}

func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return &apperr.DuplicateError{Field: duplicateField(pgErr)}
	}
	return apperr.Unavailable(op, err)
}

func duplicateField(pgErr *pgconn.PgError) string {
	for _, source := range []string{pgErr.ConstraintName, pgErr.Detail} {
		switch {
		case strings.Contains(source, "user_email"):
			return apperr.FieldEmail
		case strings.Contains(source, "user_name"):
			return apperr.FieldUsername
		}
	}
	return ""
}
