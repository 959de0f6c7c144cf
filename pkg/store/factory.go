package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-training/oauth-callback/pkg/config"
	"github.com/go-training/oauth-callback/pkg/core"
)

// DefaultCollection is the namespace shared with the service that consumes the records.
const DefaultCollection = "oauth_users"

// StoreType represents the type of store backend.
type StoreType string

const (
	// StoreTypeMemory represents in-memory storage.
	StoreTypeMemory StoreType = "memory"
	// StoreTypeRedis represents Redis storage.
	StoreTypeRedis StoreType = "redis"
	// StoreTypeFirestore represents Firestore storage.
	StoreTypeFirestore StoreType = "firestore"
)

// Config contains configuration for creating a store.
type Config struct {
	// Type specifies the store type.
	Type StoreType
	// Collection is the document namespace; DefaultCollection when empty.
	Collection string
	// Redis contains Redis-specific configuration.
	Redis RedisOptions
	// Firestore contains Firestore-specific configuration.
	Firestore FirestoreOptions
}

// FromSettings converts environment settings into a store Config.
func FromSettings(s config.StoreConfig) Config {
	return Config{
		Type:       ParseStoreType(s.Type),
		Collection: s.Collection,
		Redis: RedisOptions{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		},
		Firestore: FirestoreOptions{
			CredentialsJSON: s.CredentialsJSON,
			ProjectID:       s.ProjectID,
		},
	}
}

// Factory creates store instances based on configuration.
type Factory struct {
	config Config
}

// NewFactory creates a new store factory with the provided configuration.
func NewFactory(config Config) *Factory {
	return &Factory{
		config: config,
	}
}

// Create creates and returns a new store instance based on the factory configuration.
// Returns an error if the store type is invalid or if store creation fails.
func (f *Factory) Create(ctx context.Context) (core.Store, error) {
	switch f.config.Type {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeRedis:
		return NewRedisStoreFromOptions(f.config.Redis, f.config.Collection)
	case StoreTypeFirestore:
		return NewFirestoreStoreFromOptions(ctx, f.config.Firestore, f.config.Collection)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", f.config.Type)
	}
}

// NewStore is a convenience function that creates a store directly from configuration.
// It's equivalent to NewFactory(config).Create(ctx).
func NewStore(ctx context.Context, config Config) (core.Store, error) {
	return NewFactory(config).Create(ctx)
}

// ParseStoreType parses a string into a StoreType.
// An empty string selects Firestore; unknown names are kept so Create can reject them.
func ParseStoreType(s string) StoreType {
	switch t := StoreType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return StoreTypeFirestore
	default:
		return t
	}
}

// String returns the string representation of a StoreType.
func (t StoreType) String() string {
	return string(t)
}

// IsValid returns true if the StoreType is valid.
func (t StoreType) IsValid() bool {
	switch t {
	case StoreTypeMemory, StoreTypeRedis, StoreTypeFirestore:
		return true
	default:
		return false
	}
}

// MemoryConfig creates a memory store configuration.
func MemoryConfig() Config {
	return Config{
		Type: StoreTypeMemory,
	}
}

// RedisConfig creates a Redis store configuration with the provided options.
func RedisConfig(redisOpts RedisOptions) Config {
	return Config{
		Type:  StoreTypeRedis,
		Redis: redisOpts,
	}
}

// FirestoreConfig creates a Firestore store configuration with the provided options.
func FirestoreConfig(opts FirestoreOptions) Config {
	return Config{
		Type:      StoreTypeFirestore,
		Firestore: opts,
	}
}
