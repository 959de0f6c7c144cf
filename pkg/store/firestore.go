package store

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/go-training/oauth-callback/pkg/core"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreOptions contains the service account credentials and project of the store.
type FirestoreOptions struct {
	CredentialsJSON string
	ProjectID       string
}

// serviceAccount holds the fields checked before handing the blob to the client.
type serviceAccount struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
}

// FirestoreStore implements the core.Store interface on a Firestore collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore wraps an existing client.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreStore{
		client:     client,
		collection: collection,
	}
}

// NewFirestoreStoreFromOptions parses the service account blob and creates a client.
func NewFirestoreStoreFromOptions(ctx context.Context, opts FirestoreOptions, collection string) (*FirestoreStore, error) {
	if opts.CredentialsJSON == "" || opts.ProjectID == "" {
		return nil, fmt.Errorf("%w: firestore credentials and project id are required", ErrNotConfigured)
	}

	var sa serviceAccount
	if err := json.Unmarshal([]byte(opts.CredentialsJSON), &sa); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if sa.Type == "" {
		return nil, fmt.Errorf("%w: missing credential type", ErrInvalidCredentials)
	}

	client, err := firestore.NewClient(ctx, opts.ProjectID,
		option.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return NewFirestoreStore(client, collection), nil
}

// Close closes the Firestore client.
func (f *FirestoreStore) Close() error {
	return f.client.Close()
}

// UpsertAuthorization sets the record fields on the identity's document with MergeAll,
// leaving fields written by other services untouched.
func (f *FirestoreStore) UpsertAuthorization(ctx context.Context, userID string, rec *core.AuthorizationRecord) error {
	if err := validate(userID, rec); err != nil {
		return err
	}

	doc := f.client.Collection(f.collection).Doc(userID)
	if _, err := doc.Set(ctx, rec.Fields(), firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to save authorization to firestore: %w", err)
	}
	return nil
}

// GetAuthorization reads the identity's document.
// It returns ErrRecordNotFound if the document does not exist.
func (f *FirestoreStore) GetAuthorization(ctx context.Context, userID string) (*core.AuthorizationRecord, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	snap, err := f.client.Collection(f.collection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get authorization from firestore: %w", err)
	}

	var rec core.AuthorizationRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode authorization: %w", err)
	}
	return &rec, nil
}
