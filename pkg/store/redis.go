package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-training/oauth-callback/pkg/core"
	"github.com/redis/rueidis"
)

// RedisStore implements the core.Store interface using Redis via rueidis.
// Each identity is a hash at "<collection>:<id>"; HSET merges fields natively.
type RedisStore struct {
	client rueidis.Client
	prefix string
}

// NewRedisStore creates a new instance of RedisStore with the provided rueidis client.
func NewRedisStore(client rueidis.Client, collection string) *RedisStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &RedisStore{
		client: client,
		prefix: collection + ":",
	}
}

// RedisOptions contains configuration for Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStoreFromOptions creates a new RedisStore with simplified options.
func NewRedisStoreFromOptions(opts RedisOptions, collection string) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("%w: redis address is empty", ErrNotConfigured)
	}
	return NewRedisStoreFromClientOption(rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	}, collection)
}

// NewRedisStoreFromClientOption creates a new RedisStore with full rueidis client options.
func NewRedisStoreFromClientOption(opts rueidis.ClientOption, collection string) (*RedisStore, error) {
	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisStore(client, collection), nil
}

// Close closes the Redis client connection.
func (r *RedisStore) Close() {
	r.client.Close()
}

func (r *RedisStore) key(userID string) string {
	return r.prefix + userID
}

// UpsertAuthorization writes every record field into the identity's hash in one HSET.
func (r *RedisStore) UpsertAuthorization(ctx context.Context, userID string, rec *core.AuthorizationRecord) error {
	if err := validate(userID, rec); err != nil {
		return err
	}

	cmd := r.client.B().Hset().Key(r.key(userID)).FieldValue().
		FieldValue(core.FieldUsername, rec.Username).
		FieldValue(core.FieldAccessToken, rec.AccessToken).
		FieldValue(core.FieldRefreshToken, rec.RefreshToken).
		FieldValue(core.FieldExpiresAt, strconv.FormatInt(rec.ExpiresAt, 10)).
		FieldValue(core.FieldScopes, rec.Scopes).
		FieldValue(core.FieldAuthorizedOn, rec.AuthorizedOn).
		Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save authorization to redis: %w", err)
	}
	return nil
}

// GetAuthorization reads the identity's hash back into a record.
// It returns ErrRecordNotFound if the hash does not exist.
func (r *RedisStore) GetAuthorization(ctx context.Context, userID string) (*core.AuthorizationRecord, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	cmd := r.client.B().Hgetall().Key(r.key(userID)).Build()
	result, err := r.client.Do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization from redis: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrRecordNotFound
	}

	fields := make(map[string]any, len(result))
	for k, v := range result {
		fields[k] = v
	}
	return core.RecordFromFields(fields)
}
