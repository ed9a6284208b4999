package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

//go:embed prompts/enrich_system.md
var enrichSystemPrompt string

//go:embed prompts/enrich_user.md
var enrichUserTemplate string

// maxPromptChars bounds how much content is sent to the LLM
const maxPromptChars = 8000

// Provider pairs an LLM client with its identifier. The first provider
// passed to NewEnricher is primary; the rest are fallbacks.
type Provider struct {
	ID     types.ProviderID
	Client gollem.LLMClient
}

type enricher struct {
	providers []Provider
	gate      interfaces.Gate
	userTmpl  *template.Template
}

// NewEnricher creates an LLM-backed enricher. Calls are metered through the
// gate, keyed "llm:<provider>". A nil gate disables metering.
func NewEnricher(gate interfaces.Gate, providers ...Provider) (interfaces.Enricher, error) {
	if len(providers) == 0 {
		return nil, goerr.New("at least one LLM provider is required", goerr.T(types.TagConfig))
	}

	tmpl, err := template.New("enrich").Parse(enrichUserTemplate)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse enrich prompt template")
	}

	return &enricher{
		providers: providers,
		gate:      gate,
		userTmpl:  tmpl,
	}, nil
}

// Enrich generates a summary and tags for the content, trying each provider
// in order until one succeeds.
func (e *enricher) Enrich(ctx context.Context, content *model.ExtractedContent) (*model.EnrichedItem, error) {
	logger := ctxlog.From(ctx)

	text := content.Text
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	var buf bytes.Buffer
	if err := e.userTmpl.Execute(&buf, map[string]string{
		"Title": content.Title,
		"Text":  text,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to build enrich prompt")
	}
	prompt := buf.String()

	var lastErr error
	for _, p := range e.providers {
		summary, tags, err := e.complete(ctx, p, prompt)
		if err != nil {
			logger.Warn("LLM provider failed, trying next",
				"provider", p.ID,
				"error", err,
			)
			lastErr = err
			continue
		}

		return &model.EnrichedItem{
			Content:  content,
			Summary:  summary,
			Tags:     tags,
			Provider: p.ID,
		}, nil
	}

	return nil, goerr.Wrap(lastErr, "all LLM providers failed",
		goerr.T(types.TagEnrichment),
		goerr.V("hash", content.Hash),
	)
}

func (e *enricher) complete(ctx context.Context, p Provider, prompt string) (string, []string, error) {
	if e.gate != nil {
		release, err := e.gate.Acquire(ctx, "llm:"+string(p.ID))
		if err != nil {
			return "", nil, goerr.Wrap(err, "rate limiter rejected LLM call")
		}
		defer release()
	}

	session, err := p.Client.NewSession(ctx,
		gollem.WithSessionSystemPrompt(enrichSystemPrompt),
	)
	if err != nil {
		return "", nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(prompt)})
	if err != nil {
		return "", nil, goerr.Wrap(err, "failed to generate LLM content")
	}
	if len(resp.Texts) == 0 {
		return "", nil, goerr.New("empty response from LLM")
	}

	summary, tags := parseEnrichment(strings.Join(resp.Texts, "\n"))
	if summary == "" {
		return "", nil, goerr.New("LLM response has no summary",
			goerr.V("response", resp.Texts[0]))
	}

	return summary, tags, nil
}

// parseEnrichment reads the "Summary:"/"Tags:" reply format. Parsed
// leniently: unknown lines are ignored, tags may be comma or ideographic
// comma separated.
func parseEnrichment(text string) (string, []string) {
	var summary string
	var tags []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Summary:"):
			summary = strings.TrimSpace(strings.TrimPrefix(line, "Summary:"))
		case strings.HasPrefix(line, "Tags:"):
			raw := strings.TrimPrefix(line, "Tags:")
			raw = strings.ReplaceAll(raw, "，", ",")
			for _, tag := range strings.Split(raw, ",") {
				tag = strings.TrimSpace(tag)
				if tag != "" {
					tags = append(tags, tag)
				}
			}
		}
	}

	return summary, tags
}
