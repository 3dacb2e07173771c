// Package store persists users and the sanitized title CSS attached to them.
//
// Title CSS lives in user_custom_fields under the name "title_css". Only
// sanitizer output is ever written, and an empty value is never stored: the
// row is deleted instead.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kraciasty/titlecss/internal/id"
)

// TitleCSSField is the custom field name holding a user's title CSS.
const TitleCSSField = "title_css"

// ErrNotFound is returned for unknown users.
var ErrNotFound = errors.New("user not found")

// User is a title owner. TitleCSS is nil when the user has no styling.
type User struct {
	ID       string
	Username string
	Title    string
	TitleCSS *string
}

// Store reads and writes users.
type Store struct {
	db *sql.DB
}

// New wraps an open, migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateUser inserts a user without title CSS.
func (s *Store) CreateUser(ctx context.Context, username, title string) (User, error) {
	u := User{ID: id.Generate(), Username: username, Title: title}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, title) VALUES (?, ?, ?)`,
		u.ID, u.Username, u.Title)
	if err != nil {
		return User{}, fmt.Errorf("create user %q: %w", username, err)
	}
	return u, nil
}

const selectUser = `
SELECT u.id, u.username, u.title, f.value
FROM users u
LEFT JOIN user_custom_fields f ON f.user_id = u.id AND f.name = ?`

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+` WHERE u.id = ?`, TitleCSSField, userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("get user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, nil
}

// ListStyledUsers returns every user with title CSS, ordered by username.
func (s *Store) ListStyledUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		selectUser+` WHERE f.value IS NOT NULL ORDER BY u.username`, TitleCSSField)
	if err != nil {
		return nil, fmt.Errorf("list styled users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list styled users: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list styled users: %w", err)
	}
	return users, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (User, error) {
	var (
		u   User
		css sql.NullString
	)
	if err := sc.Scan(&u.ID, &u.Username, &u.Title, &css); err != nil {
		return User{}, err
	}
	if css.Valid {
		u.TitleCSS = &css.String
	}
	return u, nil
}

// SetTitleCSS stores css as the user's title CSS. An empty css clears it.
func (s *Store) SetTitleCSS(ctx context.Context, userID, css string) error {
	if css == "" {
		return s.ClearTitleCSS(ctx, userID)
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return fmt.Errorf("set title css: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO user_custom_fields (user_id, name, value) VALUES (?, ?, ?)
ON CONFLICT (user_id, name) DO UPDATE SET value = excluded.value`,
		userID, TitleCSSField, css)
	if err != nil {
		return fmt.Errorf("set title css for %s: %w", userID, err)
	}
	return nil
}

// ClearTitleCSS removes the user's title CSS, if any.
func (s *Store) ClearTitleCSS(ctx context.Context, userID string) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return fmt.Errorf("clear title css: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_custom_fields WHERE user_id = ? AND name = ?`,
		userID, TitleCSSField)
	if err != nil {
		return fmt.Errorf("clear title css for %s: %w", userID, err)
	}
	return nil
}

// TitleCSS returns the stored title CSS and whether one is present.
func (s *Store) TitleCSS(ctx context.Context, userID string) (string, bool, error) {
	var css string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM user_custom_fields WHERE user_id = ? AND name = ?`,
		userID, TitleCSSField).Scan(&css)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read title css for %s: %w", userID, err)
	}
	return css, true, nil
}

func (s *Store) ensureUser(ctx context.Context, userID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return err
}
