// Package jira provides a client for the Jira REST API with authentication
// fallback and API version negotiation.
//
// This package supports both Jira Cloud (API v3) and Jira Server/Data Center
// (API v2). When the configured version is "auto", the client starts on v3
// and falls back to v2 once, the first time v3 answers 404; the working
// version is remembered for the rest of the session.
//
// # Authentication
//
// Credentials are resolved by AuthManager. It tries the configured preferred
// method first, then walks a fixed fallback order over the remaining
// methods:
//   - SSO session cookie
//   - API Token (Cloud): email + API token
//   - Personal Access Token (Server/DC)
//   - Basic auth (legacy): username + password
//
// OAuth 2.0 bearer tokens are supported as a preferred method only; they
// never participate in the fallback scan.
//
// # Usage
//
//	cfg := jira.DefaultConfig()
//	cfg.URL = "https://your-domain.atlassian.net"
//	cfg.Auth = jira.AuthConfig{
//		Type:  jira.AuthAPIToken,
//		Email: "you@example.com",
//		Token: "your-api-token",
//	}
//
//	client, err := jira.NewClient(cfg)
//	if err != nil {
//		return err
//	}
//
//	issue, err := client.GetIssue(ctx, "PROJ-123")
//
// # Error Handling
//
// The package uses reqflow/http error types for consistent error handling.
// Use errors.Is() to check for specific conditions:
//
//	if errors.Is(err, http.ErrNotFound) {
//		// Issue doesn't exist on either API version
//	}
//
// Troubleshoot turns any client error into a user-facing message plus
// actionable steps keyed by error category, auth method, and deployment
// type. Raw errors are for logs; Guidance is for people.
package jira
