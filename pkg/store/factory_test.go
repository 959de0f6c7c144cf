package store

import (
	"context"
	"errors"
	"testing"

	"github.com/go-training/oauth-callback/pkg/config"
)

func TestParseStoreType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected StoreType
	}{
		{name: "parse memory lowercase", input: "memory", expected: StoreTypeMemory},
		{name: "parse memory uppercase", input: "MEMORY", expected: StoreTypeMemory},
		{name: "parse redis mixed case", input: "ReDiS", expected: StoreTypeRedis},
		{name: "parse firestore", input: "Firestore", expected: StoreTypeFirestore},
		{name: "empty string returns firestore", input: "", expected: StoreTypeFirestore},
		{name: "unknown is kept", input: "mongo", expected: StoreType("mongo")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := ParseStoreType(tt.input); result != tt.expected {
				t.Errorf("ParseStoreType(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestStoreType_IsValid(t *testing.T) {
	tests := []struct {
		storeType StoreType
		want      bool
	}{
		{StoreTypeMemory, true},
		{StoreTypeRedis, true},
		{StoreTypeFirestore, true},
		{StoreType("mongo"), false},
		{StoreType(""), false},
	}
	for _, tt := range tests {
		if got := tt.storeType.IsValid(); got != tt.want {
			t.Errorf("StoreType(%q).IsValid() = %v, want %v", tt.storeType, got, tt.want)
		}
	}
}

func TestFactory_Create_Memory(t *testing.T) {
	store, err := NewFactory(MemoryConfig()).Create(context.Background())
	if err != nil {
		t.Fatalf("Factory.Create() error = %v, want nil", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("Factory.Create() returned %T, want *MemoryStore", store)
	}
}

func TestFactory_Create_Redis(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewStore(context.Background(), RedisConfig(RedisOptions{Addr: addr}))
	if err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	redisStore, ok := store.(*RedisStore)
	if !ok {
		t.Fatalf("Factory.Create() returned %T, want *RedisStore", store)
	}
	redisStore.Close()
}

func TestFactory_Create_Errors(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:   "invalid type",
			config: Config{Type: StoreType("invalid")},
		},
		{
			name:    "firestore without credentials",
			config:  FirestoreConfig(FirestoreOptions{}),
			wantErr: ErrNotConfigured,
		},
		{
			name:    "firestore with bad credentials",
			config:  FirestoreConfig(FirestoreOptions{CredentialsJSON: "{", ProjectID: "p"}),
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "redis without address",
			config:  RedisConfig(RedisOptions{}),
			wantErr: ErrNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(context.Background(), tt.config)
			if err == nil {
				t.Fatal("NewStore() should return error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("NewStore() error = %v, want %v", err, tt.wantErr)
			}
			if store != nil {
				t.Error("NewStore() should return nil store on error")
			}
		})
	}
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.StoreConfig{
		Type:            "Redis",
		Collection:      "oauth_users",
		CredentialsJSON: "{}",
		ProjectID:       "project",
		RedisAddr:       "redis:6379",
		RedisPassword:   "pw",
		RedisDB:         2,
	})

	if cfg.Type != StoreTypeRedis {
		t.Errorf("Type = %v, want %v", cfg.Type, StoreTypeRedis)
	}
	if cfg.Redis != (RedisOptions{Addr: "redis:6379", Password: "pw", DB: 2}) {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Firestore.ProjectID != "project" || cfg.Collection != "oauth_users" {
		t.Errorf("unexpected config %+v", cfg)
	}
}
