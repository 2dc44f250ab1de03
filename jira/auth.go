package jira

import (
	"context"
	"encoding/base64"
	"log/slog"

	"golang.org/x/oauth2"
)

// AuthResult is the outcome of a single authentication attempt.
type AuthResult struct {
	// Succeeded reports whether the method produced usable headers.
	Succeeded bool

	// Type is the authentication method that produced this result.
	Type AuthType

	// Headers are the HTTP headers to attach to requests.
	Headers map[string]string

	// ErrorMessage explains the failure, empty on success.
	ErrorMessage string

	// RequiresFallback indicates the manager should try the next method.
	RequiresFallback bool

	// SessionData carries method-specific session state (e.g. the SSO
	// cookie in use).
	SessionData map[string]string
}

// authHandler is one authentication strategy: a pure validation predicate
// over the presence of required fields, and an authenticate function that
// never fails with an error; failures are represented in the AuthResult.
type authHandler struct {
	validate     func(cfg *AuthConfig) bool
	authenticate func(cfg *AuthConfig) AuthResult
}

// fallbackOrder is the fixed priority order for the fallback scan. It does
// not depend on the preferred method: SSO is always attempted at the highest
// fallback priority even when not preferred.
var fallbackOrder = []AuthType{AuthSSO, AuthAPIToken, AuthPAT, AuthBasic}

// defaultHandlers returns the handler set for every supported method.
func defaultHandlers() map[AuthType]authHandler {
	return map[AuthType]authHandler{
		AuthAPIToken: {
			validate: func(cfg *AuthConfig) bool {
				return cfg.Email != "" && cfg.Token != ""
			},
			authenticate: func(cfg *AuthConfig) AuthResult {
				encoded := base64.StdEncoding.EncodeToString([]byte(cfg.Email + ":" + cfg.Token))
				return AuthResult{
					Succeeded: true,
					Type:      AuthAPIToken,
					Headers:   map[string]string{"Authorization": "Basic " + encoded},
				}
			},
		},
		AuthPAT: {
			validate: func(cfg *AuthConfig) bool {
				return cfg.Token != ""
			},
			authenticate: func(cfg *AuthConfig) AuthResult {
				return AuthResult{
					Succeeded: true,
					Type:      AuthPAT,
					Headers:   map[string]string{"Authorization": "Bearer " + cfg.Token},
				}
			},
		},
		AuthBasic: {
			validate: func(cfg *AuthConfig) bool {
				return cfg.Username != "" && cfg.Password != ""
			},
			authenticate: func(cfg *AuthConfig) AuthResult {
				encoded := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
				return AuthResult{
					Succeeded: true,
					Type:      AuthBasic,
					Headers:   map[string]string{"Authorization": "Basic " + encoded},
				}
			},
		},
		AuthSSO: {
			validate: func(cfg *AuthConfig) bool {
				return cfg.UseSSO || cfg.SessionCookie != ""
			},
			authenticate: func(cfg *AuthConfig) AuthResult {
				if cfg.SessionCookie != "" {
					return AuthResult{
						Succeeded:   true,
						Type:        AuthSSO,
						Headers:     map[string]string{"Cookie": cfg.SessionCookie},
						SessionData: map[string]string{"cookie": cfg.SessionCookie},
					}
				}
				// Session detection from a live browser session is not
				// implemented; the flag alone cannot authenticate.
				return AuthResult{
					Type:             AuthSSO,
					ErrorMessage:     "sso requested but no session cookie available",
					RequiresFallback: true,
				}
			},
		},
		AuthOAuth2: {
			validate: func(cfg *AuthConfig) bool {
				return cfg.TokenSource != nil ||
					cfg.AccessToken != "" ||
					(cfg.RefreshToken != "" && cfg.TokenURL != "")
			},
			authenticate: func(cfg *AuthConfig) AuthResult {
				tok, err := oauthTokenSource(cfg).Token()
				if err != nil {
					return AuthResult{
						Type:             AuthOAuth2,
						ErrorMessage:     "oauth2 token source: " + err.Error(),
						RequiresFallback: true,
					}
				}
				return AuthResult{
					Succeeded: true,
					Type:      AuthOAuth2,
					Headers:   map[string]string{"Authorization": tok.Type() + " " + tok.AccessToken},
				}
			},
		},
	}
}

// oauthTokenSource resolves the token source for oauth2 auth. An injected
// live source wins; otherwise the configured token endpoint yields a
// refreshing source, and a bare access token yields a static one.
func oauthTokenSource(cfg *AuthConfig) oauth2.TokenSource {
	if cfg.TokenSource != nil {
		return cfg.TokenSource
	}

	tok := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		Expiry:       cfg.TokenExpiry,
	}
	if cfg.RefreshToken != "" && cfg.TokenURL != "" {
		conf := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		}
		return conf.TokenSource(context.Background(), tok)
	}
	return oauth2.StaticTokenSource(tok)
}

// AuthManager resolves credentials for one Jira connection. It tries the
// preferred method first, then walks the fixed fallback order, and caches
// the first success until Clear is called.
//
// An AuthManager is not safe for concurrent use. Each Client owns its own
// instance and drives it from a single request flow at a time.
type AuthManager struct {
	cfg      *AuthConfig
	handlers map[AuthType]authHandler
	current  *AuthResult
	logger   *slog.Logger
}

// AuthManagerOption configures an AuthManager.
type AuthManagerOption func(*AuthManager)

// WithAuthLogger sets the logger used for fallback-scan debug logging.
func WithAuthLogger(logger *slog.Logger) AuthManagerOption {
	return func(m *AuthManager) {
		m.logger = logger
	}
}

// NewAuthManager creates an AuthManager for the given credentials.
func NewAuthManager(cfg *AuthConfig, opts ...AuthManagerOption) *AuthManager {
	m := &AuthManager{
		cfg:      cfg,
		handlers: defaultHandlers(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}

	return m
}

// Authenticate resolves credentials. The preferred method is tried first if
// its required fields are present; on failure the fixed fallback order
// (SSO, API token, PAT, basic) is scanned, skipping the preferred method.
// The first success is cached and returned. If every candidate fails, the
// terminal result carries ErrAllAuthFailed's message and is not cached, so
// IsAuthenticated stays false.
func (m *AuthManager) Authenticate() AuthResult {
	preferred := m.cfg.Type

	if handler, ok := m.handlers[preferred]; ok && handler.validate(m.cfg) {
		result := handler.authenticate(m.cfg)
		if result.Succeeded {
			m.current = &result
			return result
		}
		m.logger.Debug("preferred auth method failed, scanning fallbacks",
			"preferred", preferred,
			"reason", result.ErrorMessage,
		)
	}

	for _, kind := range fallbackOrder {
		if kind == preferred {
			continue
		}
		handler := m.handlers[kind]
		if !handler.validate(m.cfg) {
			continue
		}
		result := handler.authenticate(m.cfg)
		if result.Succeeded {
			m.logger.Debug("authenticated via fallback method", "method", kind)
			m.current = &result
			return result
		}
		m.logger.Debug("fallback auth method failed",
			"method", kind,
			"reason", result.ErrorMessage,
		)
	}

	return AuthResult{
		ErrorMessage:     ErrAllAuthFailed.Error(),
		RequiresFallback: true,
	}
}

// IsAuthenticated reports whether a successful result is cached.
func (m *AuthManager) IsAuthenticated() bool {
	return m.current != nil && m.current.Succeeded
}

// Headers returns the cached headers, authenticating first if needed.
// The map is empty (never nil) when every method fails.
func (m *AuthManager) Headers() map[string]string {
	if m.IsAuthenticated() {
		return m.current.Headers
	}

	result := m.Authenticate()
	if result.Headers == nil {
		return map[string]string{}
	}
	return result.Headers
}

// Current returns the cached result, nil when unauthenticated.
func (m *AuthManager) Current() *AuthResult {
	return m.current
}

// Clear drops the cached result. Callers do this after a 401 so the next
// request re-authenticates from scratch.
func (m *AuthManager) Clear() {
	m.current = nil
}
