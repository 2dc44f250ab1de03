package reqflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/reqflow/audit"
	"github.com/randalmurphal/reqflow/config"
	reqhttp "github.com/randalmurphal/reqflow/http"
	"github.com/randalmurphal/reqflow/jira"
	"github.com/randalmurphal/reqflow/llm"
	"github.com/randalmurphal/reqflow/notify"
	"github.com/randalmurphal/reqflow/prompt"
)

// Service errors.
var (
	ErrJiraClientRequired = errors.New("jira client is required")
	ErrProviderRequired   = errors.New("llm provider is required")
)

// Service glues the Jira client, the LLM provider, the audit recorder, and
// the notifier into the intake workflow. Every operation is audited with
// its duration and outcome.
type Service struct {
	jira     *jira.Client
	provider llm.Provider
	recorder audit.Recorder
	notifier notify.Notifier
	prompts  *prompt.Loader
	logger   *slog.Logger

	maxTokens   int
	temperature float64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder sets the audit recorder. Default is audit.NopRecorder.
func WithRecorder(r audit.Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// WithNotifier sets the event notifier. Default is notify.Nop.
func WithNotifier(n notify.Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithPromptLoader sets the prompt loader. Default loads from the current
// directory's override paths plus the embedded templates.
func WithPromptLoader(l *prompt.Loader) ServiceOption {
	return func(s *Service) { s.prompts = l }
}

// WithCompletionLimits tunes LLM requests. Zero values use provider defaults.
func WithCompletionLimits(maxTokens int, temperature float64) ServiceOption {
	return func(s *Service) {
		s.maxTokens = maxTokens
		s.temperature = temperature
	}
}

// NewService creates a Service from its dependencies.
func NewService(client *jira.Client, provider llm.Provider, opts ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, ErrJiraClientRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	s := &Service{
		jira:     client,
		provider: provider,
		recorder: audit.NopRecorder{},
		notifier: notify.Nop{},
		prompts:  prompt.NewLoader("."),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromConfig builds a fully wired Service from application config:
// the Jira client, the configured LLM provider, a SQLite audit recorder
// when auditing is enabled, and any configured notifiers.
func NewFromConfig(cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := jira.NewClient(cfg.Jira)
	if err != nil {
		return nil, err
	}

	provider, err := NewProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}

	base := []ServiceOption{
		WithCompletionLimits(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
	}

	if cfg.Audit.Enabled {
		recorder, err := audit.NewSQLiteRecorder(cfg.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("open audit store: %w", err)
		}
		base = append(base, WithRecorder(recorder))
	}

	if n := notifierFromConfig(cfg.Notify); n != nil {
		base = append(base, WithNotifier(n))
	}

	return NewService(client, provider, append(base, opts...)...)
}

// NewProvider constructs the LLM provider selected by cfg.
func NewProvider(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return llm.NewAnthropic(cfg.APIKey, cfg.Model)
	case "openai":
		return llm.NewOpenAI(cfg.APIKey, cfg.Model)
	case "mock":
		return llm.NewMock(), nil
	default:
		return nil, fmt.Errorf("%w: %s", llm.ErrUnknownProvider, cfg.Provider)
	}
}

func notifierFromConfig(cfg config.NotifyConfig) notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.SlackWebhook != "" {
		var slackOpts []notify.SlackOption
		if cfg.SlackChannel != "" {
			slackOpts = append(slackOpts, notify.WithSlackChannel(cfg.SlackChannel))
		}
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.SlackWebhook, slackOpts...))
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.WebhookURL, nil))
	}

	switch len(notifiers) {
	case 0:
		return nil
	case 1:
		return notifiers[0]
	default:
		return notify.NewMultiNotifier(notifiers...)
	}
}

// Analyze runs the requirement through the LLM and returns a structured
// assessment.
func (s *Service) Analyze(ctx context.Context, req Requirement) (*Analysis, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	text, err := s.prompts.Render("analyze_requirement", map[string]any{
		"Title":   req.Title,
		"Body":    req.Body,
		"Context": req.Context,
	})
	if err != nil {
		s.record(ctx, "analyze_requirement", req.ID, s.provider.Name(), start, err)
		return nil, err
	}

	resp, err := s.complete(ctx, text)
	s.record(ctx, "analyze_requirement", req.ID, s.provider.Name(), start, err)
	if err != nil {
		s.notify(ctx, notify.Event{
			Type:          notify.EventAnalysisFailed,
			RequirementID: req.ID,
			Message:       fmt.Sprintf("analysis of %q failed", req.Title),
			Severity:      notify.SeverityError,
		})
		return nil, fmt.Errorf("analyze requirement %s: %w", req.ID, err)
	}

	s.notify(ctx, notify.Event{
		Type:          notify.EventRequirementAnalyzed,
		RequirementID: req.ID,
		Message:       fmt.Sprintf("requirement %q analyzed", req.Title),
		Severity:      notify.SeverityInfo,
	})

	return &Analysis{
		ID:            newID("ana"),
		RequirementID: req.ID,
		Provider:      s.provider.Name(),
		Model:         resp.Model,
		Content:       resp.Content,
		TokensIn:      resp.TokensIn,
		TokensOut:     resp.TokensOut,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Recommend produces an implementation recommendation for the requirement.
// A prior Analysis is optional; when present its content is included in
// the prompt.
func (s *Service) Recommend(ctx context.Context, req Requirement, analysis *Analysis) (*Recommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	vars := map[string]any{
		"Title": req.Title,
		"Body":  req.Body,
	}
	if analysis != nil {
		vars["Analysis"] = analysis.Content
	}

	text, err := s.prompts.Render("recommend_solution", vars)
	if err != nil {
		s.record(ctx, "recommend_solution", req.ID, s.provider.Name(), start, err)
		return nil, err
	}

	resp, err := s.complete(ctx, text)
	s.record(ctx, "recommend_solution", req.ID, s.provider.Name(), start, err)
	if err != nil {
		return nil, fmt.Errorf("recommend for requirement %s: %w", req.ID, err)
	}

	s.notify(ctx, notify.Event{
		Type:          notify.EventRecommendationDone,
		RequirementID: req.ID,
		Message:       fmt.Sprintf("recommendation ready for %q", req.Title),
		Severity:      notify.SeverityInfo,
	})

	return &Recommendation{
		ID:            newID("rec"),
		RequirementID: req.ID,
		Provider:      s.provider.Name(),
		Model:         resp.Model,
		Content:       resp.Content,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// CreateTicket creates a Jira issue for a requirement. The description is
// sent in the form the negotiated API version accepts.
func (s *Service) CreateTicket(ctx context.Context, in TicketInput) (*jira.CreateIssueResponse, error) {
	start := time.Now()

	issueType := in.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	req := &jira.CreateIssueRequest{
		Fields: map[string]any{
			"project":     map[string]any{"key": in.Project},
			"summary":     in.Summary,
			"description": s.jira.FormatText(in.Description),
			"issuetype":   map[string]any{"name": issueType},
		},
	}

	resp, err := s.jira.CreateIssue(ctx, req)
	s.record(ctx, "create_ticket", in.RequirementID, "jira", start, err)
	if err != nil {
		// Transient Jira failures warn; a retry may succeed without
		// anyone changing anything.
		severity := notify.SeverityError
		if reqhttp.IsRetryable(err) {
			severity = notify.SeverityWarning
		}
		s.notify(ctx, notify.Event{
			Type:          notify.EventTicketCreateFailed,
			RequirementID: in.RequirementID,
			Message:       fmt.Sprintf("ticket creation failed in project %s", in.Project),
			Severity:      severity,
		})
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.notify(ctx, notify.Event{
		Type:          notify.EventTicketCreated,
		RequirementID: in.RequirementID,
		TicketKey:     resp.Key,
		Message:       fmt.Sprintf("created %s: %s", resp.Key, in.Summary),
		Severity:      notify.SeverityInfo,
	})
	return resp, nil
}

// GetTicket fetches a Jira issue by key.
func (s *Service) GetTicket(ctx context.Context, key string) (*jira.Issue, error) {
	start := time.Now()
	issue, err := s.jira.GetIssue(ctx, key)
	s.record(ctx, "get_ticket", key, "jira", start, err)
	return issue, err
}

// SummarizeTicket fetches an issue and asks the LLM for a short status
// summary.
func (s *Service) SummarizeTicket(ctx context.Context, key string) (string, error) {
	issue, err := s.GetTicket(ctx, key)
	if err != nil {
		return "", err
	}

	status := ""
	if issue.Fields.Status != nil {
		status = issue.Fields.Status.Name
	}
	created := ""
	if t, terr := issue.Fields.CreatedTime(); terr == nil && !t.IsZero() {
		created = t.Format("2006-01-02")
	}

	start := time.Now()
	text, err := s.prompts.Render("summarize_ticket", map[string]any{
		"Key":         issue.Key,
		"Status":      status,
		"Created":     created,
		"Summary":     issue.Fields.Summary,
		"Description": jira.PlainText(issue.Fields.Description),
	})
	if err != nil {
		s.record(ctx, "summarize_ticket", key, s.provider.Name(), start, err)
		return "", err
	}

	resp, err := s.complete(ctx, text)
	s.record(ctx, "summarize_ticket", key, s.provider.Name(), start, err)
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", key, err)
	}
	return resp.Content, nil
}

// VerifyConnection authenticates against Jira and returns the current
// user. It exercises the full auth fallback chain, so it is the first
// call to make when diagnosing a configuration.
func (s *Service) VerifyConnection(ctx context.Context) (*jira.User, error) {
	start := time.Now()
	user, err := s.jira.Myself(ctx)

	subject := ""
	if user != nil {
		subject = user.GetID()
	}
	s.record(ctx, "verify_connection", subject, "jira", start, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("jira connection verified",
		"user", user.DisplayName,
		"user_id", user.GetID(),
		"api_version", s.jira.WorkingVersion(),
	)
	return user, nil
}

// Audit returns the most recent audit events, newest first.
func (s *Service) Audit(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.recorder.Recent(ctx, limit)
}

func (s *Service) complete(ctx context.Context, promptText string) (llm.Response, error) {
	return s.provider.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: promptText},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
}

func (s *Service) record(ctx context.Context, operation, subject, provider string, start time.Time, opErr error) {
	event := audit.Event{
		Operation: operation,
		Subject:   subject,
		Provider:  provider,
		Succeeded: opErr == nil,
		Duration:  time.Since(start),
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if err := s.recorder.Record(ctx, event); err != nil {
		s.logger.Warn("audit record failed", "operation", operation, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, event notify.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("notification failed", "type", event.Type, "error", err)
	}
}
