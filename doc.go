// Package reqflow turns raw requirements into analyzed, actionable Jira
// tickets.
//
// The package is organized into subpackages by domain:
//
//   - jira: Jira REST client with auth fallback and API version negotiation
//   - retry: backoff policies and a generic retry executor
//   - llm: language-model provider abstraction (Anthropic, OpenAI, mock)
//   - audit: operation audit trail with a SQLite store
//   - prompt: LLM prompt template loading
//   - notify: intake event delivery (log, webhook, Slack)
//   - config: application configuration
//
// The root package glues these together in Service:
//
//	cfg, err := config.Load("reqflow.yaml")
//	svc, err := reqflow.NewFromConfig(cfg)
//	analysis, err := svc.Analyze(ctx, reqflow.NewRequirement(
//	    "Add SSO login",
//	    "Users should be able to sign in with the corporate IdP.",
//	))
package reqflow
