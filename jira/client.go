package jira

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	reqhttp "github.com/randalmurphal/reqflow/http"
	"github.com/randalmurphal/reqflow/retry"
)

// Client provides access to the Jira REST API. Requests are wrapped in the
// retry executor; 404 on API v3 triggers a one-shot fallback to v2 (when the
// version is not pinned) and a 401 on an already-authenticated session
// triggers exactly one re-authentication.
//
// A Client negotiates its working API version and authentication state as
// session state, so like its AuthManager it belongs to a single request
// flow; create one Client per connection configuration.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	baseURL    string
	auth       *AuthManager
	exec       *retry.Executor
	logger     *slog.Logger

	// version is the working API version for this session. pinned
	// disables negotiation when the config names an explicit version.
	version APIVersion
	pinned  bool
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Jira client.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy, err := retry.NewPolicy(cfg.Retry.PolicyConfig())
	if err != nil {
		return nil, err
	}

	// The client keeps its own copy so callers mutating cfg after
	// construction cannot change session behavior.
	cfg = cfg.Clone()

	c := &Client{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.httpClient == nil {
		transport, transportErr := newTransport(&cfg.HTTP)
		if transportErr != nil {
			return nil, transportErr
		}
		c.httpClient = &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: transport,
		}
	}

	c.auth = NewAuthManager(&cfg.Auth, WithAuthLogger(c.logger))
	c.exec = retry.NewExecutor(policy, retry.WithLogger(c.logger))

	switch cfg.APIVersion {
	case APIVersionV2:
		c.version = APIVersionV2
		c.pinned = true
	case APIVersionV3:
		c.version = APIVersionV3
		c.pinned = true
	default:
		// auto: start on v3, negotiate down on 404.
		c.version = APIVersionV3
	}

	return c, nil
}

// newTransport builds the HTTP transport from the TLS and proxy settings.
func newTransport(cfg *HTTPConfig) (*http.Transport, error) {
	transport := &http.Transport{
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: cfg.IdleConnTimeout,
		Proxy:           http.ProxyFromEnvironment,
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	if cfg.InsecureSkipVerify || cfg.CAFile != "" {
		tlsCfg := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify} //nolint:gosec // operator-controlled toggle
		if cfg.CAFile != "" {
			pem, err := os.ReadFile(cfg.CAFile)
			if err != nil {
				return nil, fmt.Errorf("read ca file: %w", err)
			}
			pool, err := x509.SystemCertPool()
			if err != nil {
				pool = x509.NewCertPool()
			}
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("no certificates found in %s", cfg.CAFile)
			}
			tlsCfg.RootCAs = pool
		}
		transport.TLSClientConfig = tlsCfg
	}

	return transport, nil
}

// Auth returns the client's authentication manager.
func (c *Client) Auth() *AuthManager {
	return c.auth
}

// WorkingVersion returns the API version currently in use.
func (c *Client) WorkingVersion() APIVersion {
	return c.version
}

// Myself fetches the authenticated user. This is the cheapest way to verify
// a connection configuration end to end.
func (c *Client) Myself(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/myself", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetIssue retrieves an issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	if key == "" {
		return nil, ErrIssueKeyRequired
	}
	if !ValidateIssueKey(key) {
		return nil, ErrIssueKeyInvalid
	}

	var issue Issue
	err := c.do(ctx, http.MethodGet, "/issue/"+key, nil, &issue)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	return &issue, nil
}

// GetTransitions gets available transitions for an issue.
func (c *Client) GetTransitions(ctx context.Context, key string) ([]Transition, error) {
	if !ValidateIssueKey(key) {
		return nil, ErrIssueKeyInvalid
	}

	var result TransitionsResponse
	err := c.do(ctx, http.MethodGet, "/issue/"+key+"/transitions", nil, &result)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	return result.Transitions, nil
}

// TransitionIssue transitions an issue to a new status.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	if !ValidateIssueKey(key) {
		return ErrIssueKeyInvalid
	}
	if transitionID == "" {
		return ErrTransitionIDRequired
	}

	body := &TransitionRequest{Transition: TransitionRef{ID: transitionID}}
	err := c.do(ctx, http.MethodPost, "/issue/"+key+"/transitions", body, nil)
	if err != nil && isStatus(err, http.StatusNotFound) {
		return ErrIssueNotFound
	}
	return err
}

// TransitionIssueByName finds and executes a transition by name.
func (c *Client) TransitionIssueByName(ctx context.Context, key, transitionName string) error {
	transitions, err := c.GetTransitions(ctx, key)
	if err != nil {
		return err
	}

	for _, t := range transitions {
		if strings.EqualFold(t.Name, transitionName) {
			return c.TransitionIssue(ctx, key, t.ID)
		}
	}

	return ErrTransitionNotFound
}

// CreateIssue creates a new issue.
func (c *Client) CreateIssue(ctx context.Context, req *CreateIssueRequest) (*CreateIssueResponse, error) {
	var result CreateIssueResponse
	if err := c.do(ctx, http.MethodPost, "/issue", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddComment adds a comment to an issue.
func (c *Client) AddComment(ctx context.Context, key string, body any) (*Comment, error) {
	if !ValidateIssueKey(key) {
		return nil, ErrIssueKeyInvalid
	}

	var comment Comment
	err := c.do(ctx, http.MethodPost, "/issue/"+key+"/comment", &AddCommentRequest{Body: body}, &comment)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// do executes one logical operation: resolve auth headers, send the request
// through the retry executor, apply the one-shot v3-to-v2 fallback on 404,
// and re-authenticate exactly once on a 401 from an already-authenticated
// session.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	reauthed := false

	for {
		wasAuthenticated := c.auth.IsAuthenticated()

		headers := c.auth.Headers()
		if len(headers) == 0 && !c.auth.IsAuthenticated() {
			return &reqhttp.AuthError{Service: "jira", Reason: ErrAllAuthFailed.Error()}
		}

		data, err := c.send(ctx, method, c.version, endpoint, body, headers)

		// API version negotiation: one-shot fallback to v2, independent
		// of the retry policy (404 is never in the retryable set).
		if err != nil && c.version == APIVersionV3 && !c.pinned && isStatus(err, http.StatusNotFound) {
			c.logger.Debug("api v3 returned 404, retrying against v2", "endpoint", endpoint)
			data2, err2 := c.send(ctx, method, APIVersionV2, endpoint, body, headers)
			if err2 == nil {
				c.version = APIVersionV2
				data, err = data2, nil
			} else {
				err = err2
			}
		}

		if err != nil {
			if isStatus(err, http.StatusUnauthorized) && wasAuthenticated && !reauthed {
				reauthed = true
				c.auth.Clear()
				if result := c.auth.Authenticate(); result.Succeeded {
					c.logger.Debug("re-authenticated after 401", "method", result.Type)
					continue
				}
			}
			return err
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode jira response: %w", err)
			}
		}
		return nil
	}
}

// send performs one retry-wrapped HTTP request against a specific API
// version and returns the response body.
func (c *Client) send(
	ctx context.Context,
	method string,
	version APIVersion,
	endpoint string,
	body any,
	headers map[string]string,
) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		payload = data
	}

	path := fmt.Sprintf("/rest/api/%s%s", strings.TrimPrefix(string(version), "v"), endpoint)
	label := method + " " + path

	op := func(ctx context.Context) ([]byte, error) {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 {
			return nil, parseAPIError(resp, path)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return data, nil
	}

	outcome := retry.Do(ctx, c.exec, label, op)
	if outcome.Succeeded {
		return outcome.Result, nil
	}
	if outcome.TimeoutExceeded {
		return nil, fmt.Errorf("%s: retry budget exhausted: %w", label, outcome.FinalError)
	}
	return nil, outcome.FinalError
}

// isStatus reports whether the error chain carries the given HTTP status.
func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
