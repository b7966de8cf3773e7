// Package session keeps server-side login state keyed by an opaque id that
// travels in a cookie. A missing record, or one without a user id, means the
// browser is logged out.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// Data is the value stored per session. FirstName and Username are display
// copies; the users table stays the system of record.
type Data struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

func (d Data) Authenticated() bool {
	return d.UserID != ""
}

// Store persists session values. Get returns (nil, nil) for an unknown id.
// Set replaces the whole value in one write.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Set(ctx context.Context, id string, data Data) error
	Delete(ctx context.Context, id string) error
}

func newID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
