package service

import (
	"context"
	"errors"
	"fmt"
)

// ErrForbidden is returned when an actor may not edit a title.
var ErrForbidden = errors.New("forbidden")

// Actor is whoever performs a write.
type Actor struct {
	ID    string
	Staff bool
}

// Guardian decides whether an actor may change a user's title CSS.
type Guardian interface {
	CanEditTitle(ctx context.Context, actor Actor, userID string) error
}

// StaffOnly lets staff edit any title and nobody else.
type StaffOnly struct{}

// CanEditTitle implements Guardian.
func (StaffOnly) CanEditTitle(_ context.Context, actor Actor, userID string) error {
	if !actor.Staff {
		return fmt.Errorf("edit title css of %s: %w", userID, ErrForbidden)
	}
	return nil
}
