package port

import "context"

type KVStore interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes the value in a single atomic write
	Set(ctx context.Context, key, value string) error

	// Remove deletes the key, missing keys are not an error
	Remove(ctx context.Context, key string) error
}
