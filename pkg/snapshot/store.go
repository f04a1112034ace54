package snapshot

import (
	"context"
	"errors"
	"strings"
)

// Store defines the interface for snapshot persistence backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save persists a snapshot, overwriting any previous value for key.
	Save(ctx context.Context, key string, data []byte) error

	// Load retrieves a snapshot.
	// Returns (nil, nil) if no snapshot exists for key.
	// Returns (nil, err) on backend errors.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes a snapshot.
	// Should not return an error if the snapshot doesn't exist.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("snapshot store is closed")

// Key builds the storage key for a table inside a client namespace.
func Key(clientID, tableID string) string {
	if clientID == "" {
		return tableID
	}
	return clientID + "/" + tableID
}

// SplitKey is the inverse of Key.
func SplitKey(key string) (clientID, tableID string) {
	i := strings.LastIndexByte(key, '/')
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}
