package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"

	"github.com/clipline/clipline/pkg/domain/types"
	"github.com/clipline/clipline/pkg/usecase"
)

// LLM holds enrichment provider configuration. OpenAI is primary when
// configured; Gemini serves as fallback (or primary when OpenAI is absent).
type LLM struct {
	OpenAIAPIKey    string
	OpenAIModel     string
	GeminiProjectID string
	GeminiLocation  string
	GeminiModel     string
}

// Flags returns CLI flags for LLM configuration
func (c *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Destination: &c.OpenAIAPIKey,
			Sources:     cli.EnvVars("CLIPLINE_OPENAI_API_KEY"),
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model for enrichment",
			Value:       "gpt-4o-mini",
			Destination: &c.OpenAIModel,
			Sources:     cli.EnvVars("CLIPLINE_OPENAI_MODEL"),
		},
		&cli.StringFlag{
			Name:        "gemini-project-id",
			Usage:       "Google Cloud Project ID for Gemini",
			Destination: &c.GeminiProjectID,
			Sources:     cli.EnvVars("CLIPLINE_GEMINI_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Vertex AI location/region",
			Value:       "us-central1",
			Destination: &c.GeminiLocation,
			Sources:     cli.EnvVars("CLIPLINE_GEMINI_LOCATION"),
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model for enrichment",
			Value:       "gemini-2.5-flash",
			Destination: &c.GeminiModel,
			Sources:     cli.EnvVars("CLIPLINE_GEMINI_MODEL"),
		},
	}
}

// Configure builds the provider list, primary first
func (c *LLM) Configure(ctx context.Context) ([]usecase.Provider, error) {
	var providers []usecase.Provider

	if c.OpenAIAPIKey != "" {
		client, err := openai.New(ctx, c.OpenAIAPIKey, openai.WithModel(c.OpenAIModel))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client", goerr.T(types.TagConfig))
		}
		providers = append(providers, usecase.Provider{ID: types.ProviderOpenAI, Client: client})
	}

	if c.GeminiProjectID != "" {
		client, err := gemini.New(ctx, c.GeminiLocation, c.GeminiProjectID, gemini.WithModel(c.GeminiModel))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client", goerr.T(types.TagConfig))
		}
		providers = append(providers, usecase.Provider{ID: types.ProviderGemini, Client: client})
	}

	if len(providers) == 0 {
		return nil, goerr.New("no LLM provider configured", goerr.T(types.TagConfig))
	}
	return providers, nil
}
