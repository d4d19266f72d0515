// Package storage provides the durable per-client key-value storage the
// storefront keeps in place of browser local storage.
package storage

import (
	"context"
	"errors"
)

// ErrEmptyClientID is returned when an operation is called without a client.
var ErrEmptyClientID = errors.New("client id is empty")

// Storage persists small string values per client. Save and Delete apply all
// the given keys in one atomic step so related values never diverge.
type Storage interface {
	Load(ctx context.Context, clientID string) (map[string]string, error)
	Save(ctx context.Context, clientID string, values map[string]string) error
	Delete(ctx context.Context, clientID string, keys ...string) error
}
