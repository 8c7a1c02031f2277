// Package generate implements the provider-routing generation pipeline:
// classification on the router model, prompt assembly, the bounded retry
// ladder around project generation and modification, and the lifecycle
// events a run emits along the way.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ravi-parthasarathy/webforge/pkg/events"
	"github.com/ravi-parthasarathy/webforge/pkg/extract"
	"github.com/ravi-parthasarathy/webforge/pkg/llm"
	"github.com/ravi-parthasarathy/webforge/pkg/metrics"
	"github.com/ravi-parthasarathy/webforge/pkg/project"
	"github.com/ravi-parthasarathy/webforge/pkg/router"
	"github.com/ravi-parthasarathy/webforge/pkg/stream"
)

const (
	// DefaultMaxTokens bounds project generation output. Projects are large;
	// anything smaller truncates mid-file too often.
	DefaultMaxTokens = 16384

	// DefaultRouterMaxTokens bounds classifier and chat answers.
	DefaultRouterMaxTokens = 2048

	previewLen = 200
)

// Pipeline orchestrates generation and modification runs. Safe for
// concurrent use; each run's state lives on its own stack.
type Pipeline struct {
	broadcaster *stream.Broadcaster
	store       project.Store

	maxTokens       int
	routerMaxTokens int
	defaultFamily   string

	// newClient is llm.NewClient in production; tests substitute fakes.
	newClient func(provider, model string) (llm.Client, error)
}

// New creates a Pipeline publishing events through b and persisting
// projects through store. Either may be nil: a nil broadcaster disables
// streaming, a nil store disables the save phase.
func New(b *stream.Broadcaster, store project.Store) *Pipeline {
	return &Pipeline{
		broadcaster:     b,
		store:           store,
		maxTokens:       DefaultMaxTokens,
		routerMaxTokens: DefaultRouterMaxTokens,
		defaultFamily:   router.DefaultFamily,
		newClient:       llm.NewClient,
	}
}

// SetMaxTokens overrides the generation output bound.
func (p *Pipeline) SetMaxTokens(n int) {
	if n > 0 {
		p.maxTokens = n
	}
}

// SetDefaultFamily overrides the family used for requests that do not name
// one.
func (p *Pipeline) SetDefaultFamily(family string) {
	if strings.TrimSpace(family) != "" {
		p.defaultFamily = family
	}
}

// family substitutes the configured default for an empty requested family.
func (p *Pipeline) family(requested string) string {
	if strings.TrimSpace(requested) == "" {
		return p.defaultFamily
	}
	return requested
}

// RouterModel reports the router-role model a family resolves to once the
// configured default family is applied.
func (p *Pipeline) RouterModel(family string) string {
	_, model := router.Resolve(p.family(family), router.RoleRouter, "")
	return model
}

func (p *Pipeline) publishFunc() events.PublishFunc {
	if p.broadcaster == nil {
		return nil
	}
	return p.broadcaster.Enqueue
}

// Generate runs the full project generation flow: optional page-type
// classification, query-detail analysis with follow-up question emission,
// prompt assembly, the provider call with its bounded parse-retry, and the
// save phase. Exactly one terminal event is emitted per run.
func (p *Pipeline) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	start := time.Now()

	family := router.Normalize(p.family(req.Family))
	provider, mainModel := router.Resolve(family, router.RoleMain, "")

	projectID := req.ProjectID
	if projectID == "" {
		projectID = "proj_" + uuid.NewString()
	}
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = "conv_" + uuid.NewString()
	}

	em := events.NewEmitter(projectID, conversationID, mainModel, p.publishFunc())
	em.ChatMessage("Starting project generation...")

	var modelsUsed []router.ModelInfo

	pageType := req.PageTypeKey
	if pageType == "" {
		c := p.ClassifyPageType(ctx, req.UserQuery, family)
		pageType = c.Label
		modelsUsed = append(modelsUsed, router.InfoFor(c.Model))
	}

	_, routerModel := router.Resolve(family, router.RoleRouter, "")
	needsFollowup, _ := p.AnalyzeQueryDetail(ctx, req.UserQuery, family)
	modelsUsed = append(modelsUsed, router.InfoFor(routerModel))

	if needsFollowup && len(req.Answers) == 0 && req.Questionnaire != nil {
		p.emitQuestions(em, req.Questionnaire)
	}

	finalPrompt := buildGenerationPrompt(provider, req)

	em.ProgressInit([]events.ProgressStep{
		{ID: "prepare", Label: "Preparing", Status: events.StatusInProgress},
		{ID: "generate", Label: "Generating", Status: events.StatusPending},
		{ID: "parse", Label: "Parsing", Status: events.StatusPending},
		{ID: "save", Label: "Saving", Status: events.StatusPending},
	}, "inline")

	em.ProgressUpdate("prepare", events.StatusCompleted)
	em.ProgressUpdate("generate", events.StatusInProgress)
	em.ThinkingStart()
	callStart := time.Now()

	output, err := p.callProvider(ctx, provider, mainModel, finalPrompt)
	if err != nil {
		em.ThinkingEnd(time.Since(callStart).Milliseconds())
		em.ProgressUpdate("generate", events.StatusFailed)
		p.emitProviderFailure(em, provider, mainModel, err)
		return nil, fmt.Errorf("provider %s call failed: %w", provider, err)
	}

	em.ThinkingEnd(time.Since(callStart).Milliseconds())
	em.ProgressUpdate("generate", events.StatusCompleted)
	em.ProgressUpdate("parse", events.StatusInProgress)

	proj, ok := extract.ParseProject(output)
	retries := 0

	// Non-gemini vendors routinely wrap JSON in prose; one stricter attempt
	// recovers most of those.
	if !ok && provider != router.PrimaryProvider {
		retries++
		slog.Warn("first parse attempt failed",
			"provider", provider, "model", mainModel, "output_len", len(output))

		if !strings.HasSuffix(strings.TrimSpace(output), "}") {
			em.ChatMessage("Response appears truncated. Retrying with higher token limit...")
		}
		em.ChatMessage("Retrying with stricter JSON prompt...")

		output, err = p.callProvider(ctx, provider, mainModel, strictPreamble+finalPrompt)
		if err != nil {
			em.ProgressUpdate("parse", events.StatusFailed)
			p.emitProviderFailure(em, provider, mainModel, err)
			return nil, fmt.Errorf("provider %s retry failed: %w", provider, err)
		}
		proj, ok = extract.ParseProject(output)
	}

	if !ok {
		em.ProgressUpdate("parse", events.StatusFailed)
		em.Error("validation",
			"Failed to parse JSON from model output",
			fmt.Sprintf("The model returned output that could not be parsed as JSON. Output length: %d chars. Preview: %s",
				len(output), preview(output)),
			events.ActionRetry, events.ActionAskUser)
		em.StreamFailed("unparseable model output")
		metrics.GenerationAttempts.WithLabelValues(provider, metrics.OutcomeParseError).Inc()
		return nil, fmt.Errorf("parse project JSON from %s output (model %s, %d chars)",
			provider, mainModel, len(output))
	}

	em.ProgressUpdate("parse", events.StatusCompleted)
	em.ProgressUpdate("save", events.StatusInProgress)

	if p.store != nil {
		if err := p.store.Save(proj, projectID); err != nil {
			em.ProgressUpdate("save", events.StatusFailed)
			em.Error("storage", "Failed to save generated project", err.Error(), events.ActionRetry)
			em.StreamFailed("project save failed")
			return nil, fmt.Errorf("save project %s: %w", projectID, err)
		}
	}

	em.ProgressUpdate("save", events.StatusCompleted)
	em.ChatMessage("Base project generated successfully!")
	em.StreamComplete()

	metrics.GenerationAttempts.WithLabelValues(provider, metrics.OutcomeSuccess).Inc()
	elapsed := time.Since(start)
	metrics.GenerationDuration.WithLabelValues("generate").Observe(elapsed.Seconds())

	files, _ := proj["files"].(map[string]any)
	modelsUsed = append(modelsUsed, router.InfoFor(mainModel))

	slog.Info("project generated",
		"project_id", projectID, "provider", provider, "model", mainModel,
		"files", len(files), "retries", retries, "elapsed", elapsed)

	return &Result{
		ProjectID:      projectID,
		ConversationID: conversationID,
		Project:        proj,
		FilesCount:     len(files),
		PageType:       pageType,
		Provider:       provider,
		Model:          mainModel,
		ModelInfo:      router.InfoFor(mainModel),
		ModelsUsed:     modelsUsed,
		Retries:        retries,
		Elapsed:        elapsed,
		ElapsedSeconds: elapsed.Seconds(),
	}, nil
}

// Modify applies an instruction to an existing project. The retry ladder is
// bounded: the complexity-selected model, one stricter-prompt retry for
// non-gemini providers, then one fallback to the family's main model when
// it differs.
func (p *Pipeline) Modify(ctx context.Context, req ModifyRequest) (*Result, error) {
	start := time.Now()

	base := req.Project
	if base == nil {
		if req.ProjectID == "" {
			return nil, fmt.Errorf("either a project payload or a project id is required")
		}
		if p.store == nil {
			return nil, fmt.Errorf("no project store configured, cannot load %s", req.ProjectID)
		}
		loaded, err := p.store.Load(req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("load project %s: %w", req.ProjectID, err)
		}
		base = loaded
	}

	family := router.Normalize(p.family(req.Family))
	provider := router.Provider(family)

	projectID := req.ProjectID
	if projectID == "" {
		projectID = "proj_" + uuid.NewString()
	}
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = "conv_" + uuid.NewString()
	}

	c := p.ClassifyComplexity(ctx, req.Instruction, family)
	complexity := c.Label
	_, modModel := router.Resolve(family, router.RoleMain, complexity)
	_, mainModel := router.Resolve(family, router.RoleMain, "")

	em := events.NewEmitter(projectID, conversationID, modModel, p.publishFunc())
	em.ChatMessage("Starting project modification...")
	em.ThinkingStart()
	callStart := time.Now()

	modPrompt := buildModificationPrompt(base, req.Instruction)
	retries := 0

	output, err := p.callProvider(ctx, provider, modModel, modPrompt)
	if err != nil {
		em.ThinkingEnd(time.Since(callStart).Milliseconds())
		p.emitProviderFailure(em, provider, modModel, err)
		return nil, fmt.Errorf("provider %s call failed: %w", provider, err)
	}

	proj, ok := extract.ParseProject(output)

	if !ok && provider != router.PrimaryProvider {
		retries++
		em.ChatMessage("Retrying with stricter JSON prompt...")
		output, err = p.callProvider(ctx, provider, modModel, strictModPreamble+modPrompt)
		if err != nil {
			em.ThinkingEnd(time.Since(callStart).Milliseconds())
			p.emitProviderFailure(em, provider, modModel, err)
			return nil, fmt.Errorf("provider %s retry failed: %w", provider, err)
		}
		proj, ok = extract.ParseProject(output)
	}

	usedModel := modModel
	if !ok && modModel != mainModel {
		retries++
		em.ChatMessage(fmt.Sprintf("Retrying with %s...", mainModel))
		em = em.WithModel(mainModel)
		output, err = p.callProvider(ctx, provider, mainModel, modPrompt)
		if err != nil {
			em.ThinkingEnd(time.Since(callStart).Milliseconds())
			p.emitProviderFailure(em, provider, mainModel, err)
			return nil, fmt.Errorf("provider %s fallback failed: %w", provider, err)
		}
		proj, ok = extract.ParseProject(output)
		usedModel = mainModel
	}

	em.ThinkingEnd(time.Since(callStart).Milliseconds())

	if !ok {
		em.Error("validation",
			"Failed to parse modified project JSON",
			fmt.Sprintf("The model returned output that could not be parsed as JSON. Output preview: %s", preview(output)),
			events.ActionRetry, events.ActionAskUser)
		em.StreamFailed("unparseable model output")
		metrics.GenerationAttempts.WithLabelValues(provider, metrics.OutcomeParseError).Inc()
		return nil, fmt.Errorf("parse modified project JSON from %s output (model %s)", provider, usedModel)
	}

	if p.store != nil {
		versionID := fmt.Sprintf("%s_mod_%d", projectID, time.Now().Unix())
		if err := p.store.Save(proj, versionID); err != nil {
			em.Error("storage", "Failed to save modified project", err.Error(), events.ActionRetry)
			em.StreamFailed("project save failed")
			return nil, fmt.Errorf("save modified project %s: %w", versionID, err)
		}
	}

	em.ChatMessage("Project modified successfully!")
	em.StreamComplete()

	metrics.GenerationAttempts.WithLabelValues(provider, metrics.OutcomeSuccess).Inc()
	elapsed := time.Since(start)
	metrics.GenerationDuration.WithLabelValues("modify").Observe(elapsed.Seconds())

	files, _ := proj["files"].(map[string]any)

	slog.Info("project modified",
		"project_id", projectID, "provider", provider, "model", usedModel,
		"complexity", complexity, "retries", retries, "elapsed", elapsed)

	return &Result{
		ProjectID:      projectID,
		ConversationID: conversationID,
		Project:        proj,
		FilesCount:     len(files),
		Complexity:     complexity,
		Provider:       provider,
		Model:          usedModel,
		ModelInfo:      router.InfoFor(usedModel),
		Retries:        retries,
		Elapsed:        elapsed,
		ElapsedSeconds: elapsed.Seconds(),
	}, nil
}

// callProvider resolves an adapter and runs one generation attempt.
func (p *Pipeline) callProvider(ctx context.Context, provider, model, prompt string) (string, error) {
	client, err := p.newClient(provider, model)
	if err != nil {
		return "", err
	}

	comp, err := client.Generate(ctx, llm.GenerateRequest{Prompt: prompt, MaxTokens: p.maxTokens})
	if err != nil {
		metrics.GenerationAttempts.WithLabelValues(provider, metrics.OutcomeProviderError).Inc()
		return "", err
	}
	if comp.Truncated {
		slog.Warn("model output truncated at token limit", "provider", provider, "model", model)
	}
	return comp.Text, nil
}

// emitProviderFailure reports a fatal provider error and terminates the
// stream. Retry is only suggested when the underlying error is transient.
func (p *Pipeline) emitProviderFailure(em *events.Emitter, provider, model string, err error) {
	actions := []string{events.ActionAskUser}
	if llm.Retryable(err) {
		actions = []string{events.ActionRetry, events.ActionAskUser}
	}
	em.Error("provider",
		fmt.Sprintf("Model provider %s failed", provider),
		fmt.Sprintf("Model %s: %v", model, err),
		actions...)
	em.StreamFailed("provider error")
	slog.Error("provider call failed", "provider", provider, "model", model, "error", err)
}

// emitQuestions streams the questionnaire as chat.question events, mapping
// the questionnaire type vocabulary onto the event one. The run does not
// block on answers; generation proceeds with defaults.
func (p *Pipeline) emitQuestions(em *events.Emitter, q *Questionnaire) {
	em.ChatMessage("I need to gather some additional information to create the perfect page for you.")

	for i, question := range q.Questions {
		id := question.ID
		if id == "" {
			id = fmt.Sprintf("q_%d", i+1)
		}

		var qType string
		switch question.Type {
		case "multiselect":
			qType = events.QuestionMultiSelect
		case "open_ended":
			qType = events.QuestionOpenEnded
		default:
			qType = events.QuestionMCQ
		}

		payload := events.ChatQuestionPayload{
			ID:           id,
			QuestionType: qType,
			Label:        question.Question,
			Skippable:    true,
		}
		switch qType {
		case events.QuestionMCQ, events.QuestionMultiSelect:
			payload.Options = question.Options
		case events.QuestionOpenEnded:
			payload.Placeholder = question.Placeholder
			if payload.Placeholder == "" {
				payload.Placeholder = "Enter your answer..."
			}
		}
		em.ChatQuestion(payload)
	}

	em.ChatMessage("Proceeding with generation using defaults. You can provide questionnaire answers in a follow-up request for more customization.")
}

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen] + "..."
}
