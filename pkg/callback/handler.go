// Package callback implements the OAuth2 authorization-code callback endpoint.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-training/oauth-callback/pkg/config"
	"github.com/go-training/oauth-callback/pkg/core"
	"github.com/go-training/oauth-callback/pkg/store"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPhaseTimeout = 5 * time.Second
	tracerName          = "github.com/go-training/oauth-callback/pkg/callback"
)

var errMissingCode = errors.New("authorization code is missing")

// IdentityProvider exchanges codes and resolves the user behind a grant.
type IdentityProvider interface {
	Exchange(ctx context.Context, code string) (*core.TokenGrant, error)
	FetchIdentity(ctx context.Context, grant *core.TokenGrant) (*core.UserIdentity, error)
	AuthorizeURL(state string) string
}

// StoreSource hands out the shared store, building it on first use.
type StoreSource interface {
	Get(ctx context.Context) (core.Store, error)
}

// Options configures a Handler.
type Options struct {
	Config   config.Config
	Provider IdentityProvider
	Stores   StoreSource
	// Renderer defaults to NewRenderer(Config.ResponseFormat).
	Renderer Renderer
	// Now defaults to time.Now.
	Now func() time.Time
	// RetryURL is linked from failure pages so the user can restart the flow.
	RetryURL string
}

// Handler runs the callback pipeline: init, config, input, exchange, identity, persist.
type Handler struct {
	cfg      config.Config
	provider IdentityProvider
	stores   StoreSource
	renderer Renderer
	now      func() time.Time
	retryURL string
	timeout  time.Duration
	tracer   trace.Tracer
}

// NewHandler creates a Handler from opts.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		cfg:      opts.Config,
		provider: opts.Provider,
		stores:   opts.Stores,
		renderer: opts.Renderer,
		now:      opts.Now,
		retryURL: opts.RetryURL,
		timeout:  opts.Config.RequestTimeout,
		tracer:   otel.Tracer(tracerName),
	}
	if h.renderer == nil {
		h.renderer = NewRenderer(opts.Config.ResponseFormat)
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.timeout <= 0 {
		h.timeout = defaultPhaseTimeout
	}
	return h
}

// callbackRequest is what the provider sends back to the redirect URI.
type callbackRequest struct {
	Code             string
	Error            string
	ErrorDescription string
}

// Callback handles GET <callback-path>?code=...
func (h *Handler) Callback(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "oauth.callback")
	defer span.End()
	logger := core.LoggerFromCtx(ctx)

	req := callbackRequest{
		Code:             c.Query("code"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	}

	username, err := h.authorize(ctx, req)
	if err != nil {
		var pErr *PhaseError
		if !errors.As(err, &pErr) {
			pErr = fail(PhaseInit, err)
		}
		status, page := pErr.Page()
		page.RetryURL = h.retryURL

		logger.Error("Authorization callback failed",
			"phase", pErr.Phase.String(),
			"status", status,
			"error", pErr.Err,
		)
		span.SetAttributes(
			attribute.String("oauth.failed_phase", pErr.Phase.String()),
			attribute.Int("http.response.status_code", status),
		)
		span.SetStatus(codes.Error, pErr.Phase.String())

		h.renderer.Render(c, status, page)
		return
	}

	logger.Info("Authorization callback succeeded", "username", username)
	span.SetAttributes(attribute.Int("http.response.status_code", http.StatusOK))
	h.renderer.Render(c, http.StatusOK, Page{
		Title:   "Access Granted",
		Message: fmt.Sprintf("Thanks, %s! Your Discord account has been authorized. You can close this window.", username),
		Success: true,
	})
}

// Login redirects to the provider's consent screen to start a fresh flow.
func (h *Handler) Login(c *gin.Context) {
	c.Redirect(http.StatusFound, h.provider.AuthorizeURL(""))
}

// authorize runs the pipeline and returns the composed username that was stored.
func (h *Handler) authorize(ctx context.Context, req callbackRequest) (string, error) {
	st, err := h.stores.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotConfigured) {
			return "", fail(PhaseConfig, err)
		}
		return "", fail(PhaseInit, err)
	}

	if missing := h.cfg.Missing(); len(missing) > 0 {
		return "", fail(PhaseConfig, fmt.Errorf("missing configuration: %s", strings.Join(missing, ", ")))
	}

	if strings.TrimSpace(req.Code) == "" {
		if req.Error != "" {
			return "", fail(PhaseInput, fmt.Errorf("provider returned %s: %s", req.Error, req.ErrorDescription))
		}
		return "", fail(PhaseInput, errMissingCode)
	}

	grant, err := runPhase(ctx, h, PhaseExchange, func(ctx context.Context) (*core.TokenGrant, error) {
		return h.provider.Exchange(ctx, req.Code)
	})
	if err != nil {
		return "", err
	}

	identity, err := runPhase(ctx, h, PhaseIdentity, func(ctx context.Context) (*core.UserIdentity, error) {
		return h.provider.FetchIdentity(ctx, grant)
	})
	if err != nil {
		return "", err
	}

	rec := core.NewAuthorizationRecord(identity, grant, h.now())
	_, err = runPhase(ctx, h, PhasePersist, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, st.UpsertAuthorization(ctx, identity.ID, rec)
	})
	if err != nil {
		return "", err
	}

	core.LoggerFromCtx(ctx).Debug("Authorization stored",
		"user_id", identity.ID,
		"expires_at", rec.ExpiresAt,
		"scopes", rec.Scopes,
	)
	return rec.Username, nil
}

// runPhase bounds fn by the handler timeout, traces it and tags any error with phase.
func runPhase[T any](ctx context.Context, h *Handler, phase Phase, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	ctx, span := h.tracer.Start(ctx, "oauth.callback."+phase.String())
	defer span.End()

	result, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var zero T
		return zero, fail(phase, err)
	}
	return result, nil
}
