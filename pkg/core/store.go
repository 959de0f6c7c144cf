package core

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	// DefaultDiscriminator is used when the provider omits the legacy discriminator.
	DefaultDiscriminator = "0"
	// ExpirySafetyMargin is subtracted from expires_in so consumers refresh early.
	ExpirySafetyMargin = 60 * time.Second
)

// Field names of a stored authorization record. Downstream consumers read these.
const (
	FieldUsername     = "username"
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldExpiresAt    = "expires_at"
	FieldScopes       = "scopes"
	FieldAuthorizedOn = "authorized_on"
)

// TokenGrant is the result of exchanging an authorization code.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

// UserIdentity is the provider's view of the user who granted access.
type UserIdentity struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
}

// DisplayName composes the "username#discriminator" form stored in records.
func (u *UserIdentity) DisplayName() string {
	discriminator := u.Discriminator
	if discriminator == "" {
		discriminator = DefaultDiscriminator
	}
	return u.Username + "#" + discriminator
}

// AuthorizationRecord is the persisted credential record, keyed by UserIdentity.ID.
type AuthorizationRecord struct {
	Username     string `json:"username" firestore:"username"`
	AccessToken  string `json:"access_token" firestore:"access_token"`
	RefreshToken string `json:"refresh_token" firestore:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at" firestore:"expires_at"`
	Scopes       string `json:"scopes" firestore:"scopes"`
	AuthorizedOn string `json:"authorized_on" firestore:"authorized_on"`
}

// NewAuthorizationRecord builds the record persisted for a successful grant at time now.
func NewAuthorizationRecord(identity *UserIdentity, grant *TokenGrant, now time.Time) *AuthorizationRecord {
	expiresAt := now.Add(time.Duration(grant.ExpiresIn) * time.Second).Add(-ExpirySafetyMargin)
	return &AuthorizationRecord{
		Username:     identity.DisplayName(),
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    expiresAt.Unix(),
		Scopes:       grant.Scope,
		AuthorizedOn: now.UTC().Format(time.RFC3339),
	}
}

// Fields returns the record as a field map suitable for a merge write.
func (r *AuthorizationRecord) Fields() map[string]any {
	return map[string]any{
		FieldUsername:     r.Username,
		FieldAccessToken:  r.AccessToken,
		FieldRefreshToken: r.RefreshToken,
		FieldExpiresAt:    r.ExpiresAt,
		FieldScopes:       r.Scopes,
		FieldAuthorizedOn: r.AuthorizedOn,
	}
}

// RecordFromFields rebuilds a record from a stored field map. Unknown fields are ignored.
func RecordFromFields(fields map[string]any) (*AuthorizationRecord, error) {
	rec := &AuthorizationRecord{
		Username:     stringField(fields[FieldUsername]),
		AccessToken:  stringField(fields[FieldAccessToken]),
		RefreshToken: stringField(fields[FieldRefreshToken]),
		Scopes:       stringField(fields[FieldScopes]),
		AuthorizedOn: stringField(fields[FieldAuthorizedOn]),
	}
	switch v := fields[FieldExpiresAt].(type) {
	case nil:
	case int64:
		rec.ExpiresAt = v
	case int:
		rec.ExpiresAt = int64(v)
	case float64:
		rec.ExpiresAt = int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", FieldExpiresAt, v, err)
		}
		rec.ExpiresAt = n
	default:
		return nil, fmt.Errorf("invalid %s type %T", FieldExpiresAt, v)
	}
	return rec, nil
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// Store persists authorization records keyed by identity id.
// UpsertAuthorization creates the record or merges the given fields into an existing one.
type Store interface {
	UpsertAuthorization(ctx context.Context, userID string, rec *AuthorizationRecord) error
	GetAuthorization(ctx context.Context, userID string) (*AuthorizationRecord, error)
}
