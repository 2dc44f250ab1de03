package jira

import (
	"time"

	"golang.org/x/oauth2"

	"github.com/randalmurphal/reqflow/retry"
)

// AuthType represents the type of authentication to use.
type AuthType string

// Authentication types supported by the Jira client.
const (
	AuthSSO      AuthType = "sso"       // Server/DC: existing browser session cookie
	AuthAPIToken AuthType = "api_token" // Cloud: email + API token
	AuthPAT      AuthType = "pat"       // Server/DC: Personal Access Token
	AuthBasic    AuthType = "basic"     // Server: username + password
	AuthOAuth2   AuthType = "oauth2"    // Cloud: OAuth 2.0 bearer token
)

// Config holds the configuration for the Jira client.
type Config struct {
	// URL is the base URL of the Jira instance.
	// For Cloud: https://your-domain.atlassian.net
	// For Server: https://jira.your-company.com
	URL string `yaml:"url"`

	// APIVersion specifies which API version to use.
	// "auto" (default) starts on v3 and negotiates down to v2 on 404.
	// "v3" or "v2" pin the version and disable negotiation.
	APIVersion APIVersion `yaml:"api_version"`

	// Deployment is an optional hint ("Cloud", "Server", "DataCenter")
	// used to tailor troubleshooting guidance. The client works without it.
	Deployment DeploymentType `yaml:"deployment"`

	// Auth contains authentication configuration.
	Auth AuthConfig `yaml:"auth"`

	// HTTP contains HTTP client configuration.
	HTTP HTTPConfig `yaml:"http"`

	// Retry contains retry tuning for individual requests.
	Retry RetryConfig `yaml:"retry"`
}

// AuthConfig holds credentials for every supported authentication method.
// Only the fields for methods actually in use need to be set; AuthManager
// skips methods whose required fields are missing.
type AuthConfig struct {
	// Type is the preferred authentication method. It is tried first and
	// excluded from the fallback scan. Empty means no preference.
	Type AuthType `yaml:"type"`

	// Email is required for api_token auth (Cloud).
	Email string `yaml:"email"`

	// Token is the API token (Cloud) or PAT (Server/DC).
	Token string `yaml:"token"`

	// Username and Password are required for basic auth.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// UseSSO requests SSO session authentication.
	UseSSO bool `yaml:"use_sso"`

	// SessionCookie is an existing Jira session cookie
	// (e.g. "JSESSIONID=...;" for Server, "cloud.session.token=..." for Cloud).
	SessionCookie string `yaml:"session_cookie"`

	// AccessToken is an OAuth 2.0 access token (oauth2 auth only).
	AccessToken string `yaml:"access_token"`

	// RefreshToken, with TokenURL, lets expired access tokens refresh
	// instead of failing. TokenExpiry marks when AccessToken expires;
	// zero means it never does.
	RefreshToken string    `yaml:"refresh_token"`
	TokenExpiry  time.Time `yaml:"token_expiry"`

	// ClientID, ClientSecret, and TokenURL identify the OAuth 2.0 app
	// at the token endpoint used for refreshes.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenURL     string `yaml:"token_url"`

	// TokenSource overrides the configured token fields with a live
	// source (e.g. one driving a full authorization-code flow). Takes
	// precedence over AccessToken and RefreshToken when set.
	TokenSource oauth2.TokenSource `yaml:"-"`
}

// HTTPConfig holds HTTP client configuration.
type HTTPConfig struct {
	// Timeout is the request timeout applied by the underlying client.
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int `yaml:"max_idle_conns"`

	// IdleConnTimeout is how long to keep idle connections open.
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// CAFile is a path to a PEM bundle with additional trusted roots.
	CAFile string `yaml:"ca_file"`

	// Proxy is an optional proxy URL. Empty uses the environment proxy.
	Proxy string `yaml:"proxy"`
}

// RetryConfig holds retry tuning for Jira requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int `yaml:"max_attempts"`

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration `yaml:"initial_delay"`

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration `yaml:"max_delay"`

	// BackoffMultiplier is the exponential growth factor.
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`

	// Strategy is "exponential", "linear", or "fixed".
	Strategy string `yaml:"strategy"`

	// TimeoutPerAttempt bounds each individual attempt.
	TimeoutPerAttempt time.Duration `yaml:"timeout_per_attempt"`

	// TotalTimeout bounds the whole retry sequence. Zero means unbounded.
	TotalTimeout time.Duration `yaml:"total_timeout"`

	// RetryableStatusCodes overrides the default {429, 502, 503, 504}.
	RetryableStatusCodes []int `yaml:"retryable_status_codes"`
}

// PolicyConfig converts the retry tuning into a retry.PolicyConfig.
func (c RetryConfig) PolicyConfig() retry.PolicyConfig {
	return retry.PolicyConfig{
		MaxAttempts:          c.MaxAttempts,
		InitialDelay:         c.InitialDelay,
		MaxDelay:             c.MaxDelay,
		BackoffMultiplier:    c.BackoffMultiplier,
		Strategy:             retry.Strategy(c.Strategy),
		TimeoutPerAttempt:    c.TimeoutPerAttempt,
		TotalTimeout:         c.TotalTimeout,
		RetryableStatusCodes: c.RetryableStatusCodes,
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIVersion: APIVersionAuto,
		HTTP: HTTPConfig{
			Timeout:         30 * time.Second,
			MaxIdleConns:    10,
			IdleConnTimeout: 90 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			InitialDelay:      1 * time.Second,
			MaxDelay:          30 * time.Second,
			BackoffMultiplier: 2.0,
			Strategy:          string(retry.StrategyExponential),
			TimeoutPerAttempt: 30 * time.Second,
		},
	}
}

// Validate validates the configuration. Credential completeness is
// deliberately not checked here: AuthManager validates each method's fields
// at authentication time so that fallback can use whichever credentials are
// actually present.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrConfigURLRequired
	}

	switch c.Auth.Type {
	case "", AuthSSO, AuthAPIToken, AuthPAT, AuthBasic, AuthOAuth2:
	default:
		return ErrConfigAuthTypeInvalid
	}

	if c.APIVersion != "" && c.APIVersion != APIVersionAuto &&
		c.APIVersion != APIVersionV2 && c.APIVersion != APIVersionV3 {
		return ErrConfigAPIVersionInvalid
	}

	if _, err := retry.NewPolicy(c.Retry.PolicyConfig()); err != nil {
		return err
	}

	return nil
}

// Clone returns a shallow copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
