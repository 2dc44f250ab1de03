package jira

import (
	"errors"
	"fmt"

	reqhttp "github.com/randalmurphal/reqflow/http"
	"github.com/randalmurphal/reqflow/retry"
)

// Guidance is a user-facing explanation of a failure: a readable message
// plus actionable troubleshooting steps. Raw errors and stack traces stay in
// logs; Guidance is what ends up in front of a person.
type Guidance struct {
	// Message is a one-line human-readable description.
	Message string

	// Steps are ordered troubleshooting suggestions.
	Steps []string
}

// Troubleshoot maps a client error to Guidance. Steps are keyed by error
// category first, then specialized by the configured auth method and the
// deployment type where that changes the advice.
func Troubleshoot(err error, cfg *Config) Guidance {
	if err == nil {
		return Guidance{}
	}

	switch {
	case errors.Is(err, ErrAllAuthFailed) || errors.Is(err, reqhttp.ErrUnauthorized):
		return authGuidance(cfg)

	case errors.Is(err, reqhttp.ErrForbidden):
		return Guidance{
			Message: "Jira rejected the request: insufficient permissions.",
			Steps: []string{
				"Verify your account has Browse Projects permission for the target project",
				"Check whether the issue is restricted by a security level",
				"Ask a Jira administrator to review your group memberships",
			},
		}

	case errors.Is(err, ErrIssueNotFound) || errors.Is(err, reqhttp.ErrNotFound):
		return notFoundGuidance(cfg)

	case errors.Is(err, reqhttp.ErrRateLimited):
		return Guidance{
			Message: "Jira is rate limiting requests from this client.",
			Steps: []string{
				"Wait a minute before retrying",
				"Reduce the request rate or batch size",
				"Check whether other integrations share this account's rate budget",
			},
		}

	case errors.Is(err, ErrConfigURLRequired) ||
		errors.Is(err, ErrConfigAuthTypeInvalid) ||
		errors.Is(err, ErrConfigAPIVersionInvalid) ||
		errors.Is(err, ErrIssueKeyInvalid) ||
		errors.Is(err, ErrIssueKeyRequired):
		return Guidance{
			Message: err.Error() + ".",
			Steps: []string{
				"Review the connection configuration and correct the highlighted field",
			},
		}
	}

	switch retry.Classify(err) {
	case retry.KindTimeout:
		return Guidance{
			Message: fmt.Sprintf("The request to %s timed out.", cfg.URL),
			Steps: []string{
				"The server may be overloaded; try again in a moment",
				"Increase the request timeout if the instance is known to be slow",
				"Check VPN or proxy connectivity if the instance is behind one",
			},
		}
	case retry.KindConnect, retry.KindNetwork:
		return connectionGuidance(cfg)
	}

	return Guidance{
		Message: "The Jira request failed unexpectedly.",
		Steps: []string{
			"Retry the operation",
			"Check the application logs for the underlying error",
			"Verify the Jira instance is reachable and healthy",
		},
	}
}

// authGuidance tailors authentication steps to the configured method and
// deployment type.
func authGuidance(cfg *Config) Guidance {
	g := Guidance{Message: "Authentication with Jira failed."}

	switch cfg.Auth.Type {
	case AuthAPIToken:
		g.Steps = []string{
			"Verify the email address matches your Atlassian account exactly",
			"Verify the API token is current; revoked tokens fail silently",
			"Create a fresh token at https://id.atlassian.com/manage-profile/security/api-tokens",
		}
	case AuthPAT:
		g.Steps = []string{
			"Verify the personal access token has not expired",
			"PATs are a Server/Data Center feature; Cloud instances need an API token instead",
			"Confirm the token was created on this Jira instance, not another one",
		}
	case AuthBasic:
		g.Steps = []string{
			"Verify the username and password",
			"Jira Cloud no longer accepts passwords; use an API token instead",
			"Check whether CAPTCHA has locked the account after failed logins",
		}
	case AuthSSO:
		g.Steps = []string{
			"Log in to Jira in a browser, then copy the session cookie into the configuration",
			"Session cookies expire; refresh the cookie if it is more than a few hours old",
			"Or configure an API token / personal access token for unattended use",
		}
	default:
		g.Steps = []string{
			"Configure credentials for at least one authentication method",
			"Cloud instances accept email + API token; Server/Data Center accepts a personal access token",
		}
	}

	if cfg.Deployment == DeploymentCloud {
		g.Steps = append(g.Steps, "Cloud note: basic username/password auth is disabled; only API tokens and OAuth work")
	}

	return g
}

// notFoundGuidance covers both missing resources and endpoints absent from
// older API versions.
func notFoundGuidance(cfg *Config) Guidance {
	steps := []string{
		"Verify the issue key exists and you can open it in a browser",
		"Check that the base URL points at the Jira instance root, without a trailing path",
	}
	if cfg.Deployment == DeploymentServer || cfg.Deployment == DeploymentDataCenter {
		steps = append(steps, "Server/Data Center only supports API v2; v3-only endpoints return 404")
	}
	return Guidance{
		Message: "Jira could not find the requested resource on any supported API version.",
		Steps:   steps,
	}
}

// connectionGuidance covers network-level failures.
func connectionGuidance(cfg *Config) Guidance {
	steps := []string{
		fmt.Sprintf("Check that %s is reachable from this machine", cfg.URL),
		"Verify DNS resolution and any VPN requirements",
	}
	if cfg.HTTP.Proxy != "" {
		steps = append(steps, fmt.Sprintf("Confirm the proxy %s is up and allows this destination", cfg.HTTP.Proxy))
	}
	if cfg.HTTP.CAFile != "" {
		steps = append(steps, "Confirm the CA bundle matches the server certificate chain")
	} else {
		steps = append(steps, "If the instance uses an internal CA, configure ca_file with its bundle")
	}
	return Guidance{
		Message: fmt.Sprintf("Cannot connect to Jira at %s.", cfg.URL),
		Steps:   steps,
	}
}
