package store

import (
	"context"
	"errors"
	"testing"

	"github.com/go-training/oauth-callback/pkg/core"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/rueidis"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a disposable Redis and returns its address.
// The test is skipped when Docker is unavailable.
func setupRedisContainer(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Skipf("Failed to setup Redis container: %v", err)
	}

	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("container endpoint: %v", err)
	}
	return addr
}

// setupRedisStore creates a RedisStore backed by a fresh container.
func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := setupRedisContainer(t)

	store, err := NewRedisStoreFromClientOption(rueidis.ClientOption{
		InitAddress: []string{addr},
	}, DefaultCollection)
	if err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestNewRedisStoreFromOptions_EmptyAddr(t *testing.T) {
	_, err := NewRedisStoreFromOptions(RedisOptions{}, "")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("NewRedisStoreFromOptions() error = %v, want %v", err, ErrNotConfigured)
	}
}

func TestRedisStore_UpsertAndGet(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		rec     *core.AuthorizationRecord
		wantErr error
	}{
		{name: "valid record", userID: "U1", rec: testRecord("token-1")},
		{name: "nil record", userID: "U1", wantErr: ErrNilRecord},
		{name: "empty user ID", userID: "", rec: testRecord("token-1"), wantErr: ErrEmptyUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.UpsertAuthorization(ctx, tt.userID, tt.rec)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("UpsertAuthorization() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			got, err := store.GetAuthorization(ctx, tt.userID)
			if err != nil {
				t.Fatalf("GetAuthorization() error = %v", err)
			}
			if diff := cmp.Diff(tt.rec, got); diff != "" {
				t.Errorf("GetAuthorization() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRedisStore_GetAuthorization_NotFound(t *testing.T) {
	store := setupRedisStore(t)

	_, err := store.GetAuthorization(context.Background(), "nobody")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("GetAuthorization() error = %v, want %v", err, ErrRecordNotFound)
	}
}

func TestRedisStore_UpsertMerges(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	if err := store.UpsertAuthorization(ctx, "U1", testRecord("token-1")); err != nil {
		t.Fatal(err)
	}
	extra := store.client.B().Hset().Key(store.key("U1")).FieldValue().FieldValue("guild_joined", "1").Build()
	if err := store.client.Do(ctx, extra).Error(); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertAuthorization(ctx, "U1", testRecord("token-2")); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetAuthorization(ctx, "U1")
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != "token-2" {
		t.Errorf("AccessToken = %q, want token-2", got.AccessToken)
	}
	joined, err := store.client.Do(ctx, store.client.B().Hget().Key(store.key("U1")).Field("guild_joined").Build()).ToString()
	if err != nil || joined != "1" {
		t.Errorf("guild_joined = %q (err %v), want 1", joined, err)
	}
}
