package captioning

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/framer/internal/gemini"
	"github.com/lehigh-university-libraries/framer/internal/ollama"
	"github.com/lehigh-university-libraries/framer/internal/openai"
	"github.com/lehigh-university-libraries/framer/internal/providers"
)

// MaxCaptionRunes caps generated captions so they fit the polaroid strip.
const MaxCaptionRunes = 80

// DefaultPrompt asks for a single short line suitable for a print caption.
const DefaultPrompt = `Write a short caption for this photograph, the kind someone would handwrite on the bottom of a polaroid print.

Rules:
- One line, at most 8 words
- No quotation marks, hashtags or emoji
- Describe the scene or mood; do not start with "A photo of"

Respond with ONLY the caption text.`

type Service struct {
	providers map[string]providers.Provider
	prompt    string
	models    map[string]string
}

// NewService returns a Service with the Gemini, Ollama and OpenAI providers
func NewService() *Service {
	return NewServiceWith(map[string]providers.Provider{
		"gemini": gemini.New(),
		"ollama": ollama.New(),
		"openai": openai.New(),
	})
}

// NewServiceWith returns a Service backed by the given providers
func NewServiceWith(p map[string]providers.Provider) *Service {
	return &Service{providers: p, prompt: DefaultPrompt}
}

// WithPrompt overrides the caption prompt. An empty prompt keeps the default.
func (s *Service) WithPrompt(prompt string) *Service {
	if strings.TrimSpace(prompt) != "" {
		s.prompt = prompt
	}
	return s
}

// WithModels sets per-provider default models, keyed by provider name
func (s *Service) WithModels(models map[string]string) *Service {
	s.models = models
	return s
}

// Caption generates a one-line caption for an encoded image
func (s *Service) Caption(ctx context.Context, image []byte, mimeType, provider, model string) (string, error) {
	if provider == "" {
		provider = os.Getenv("CAPTION_PROVIDER")
		if provider == "" {
			provider = "ollama"
		}
	}

	p, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("unsupported caption provider: %s", provider)
	}

	if model == "" {
		model = s.defaultModel(provider)
	}

	raw, err := p.ExtractText(ctx, providers.Config{
		Model:       model,
		Temperature: 0.4,
		Prompt:      s.prompt,
		Image:       image,
		MIMEType:    mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate caption with %s: %w", provider, err)
	}

	caption := CleanCaption(raw)
	slog.Debug("Generated caption", "provider", provider, "model", model, "caption", caption)
	return caption, nil
}

// modelEnv names the environment variable that overrides each provider's model
var modelEnv = map[string]string{
	"gemini": "GEMINI_MODEL",
	"openai": "OPENAI_MODEL",
	"ollama": "OLLAMA_MODEL",
}

// fallbackModels apply when neither the caller, the environment nor the
// config names a model
var fallbackModels = map[string]string{
	"gemini": "gemini-2.5-flash",
	"openai": "gpt-4o-mini",
	"ollama": "llava:13b",
}

// DefaultModel returns the model used when none is given for provider:
// the provider's *_MODEL environment variable, then the built-in fallback
func DefaultModel(provider string) string {
	if key, ok := modelEnv[provider]; ok {
		if model := os.Getenv(key); model != "" {
			return model
		}
	}
	return fallbackModels[provider]
}

// defaultModel resolves the model for provider: environment first, then the
// configured defaults, then the built-in fallback
func (s *Service) defaultModel(provider string) string {
	if key, ok := modelEnv[provider]; ok {
		if model := os.Getenv(key); model != "" {
			return model
		}
	}
	if model := s.models[provider]; model != "" {
		return model
	}
	return fallbackModels[provider]
}

// CleanCaption reduces an LLM response to a single short line
func CleanCaption(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```text")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	// Keep the first non-empty line
	for _, line := range strings.Split(response, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			response = line
			break
		}
	}

	response = strings.TrimPrefix(response, "Caption:")
	response = strings.Trim(strings.TrimSpace(response), "\"'`*_“”")
	response = strings.TrimSpace(response)

	if utf8.RuneCountInString(response) > MaxCaptionRunes {
		runes := []rune(response)
		response = strings.TrimSpace(string(runes[:MaxCaptionRunes-3])) + "..."
	}
	return response
}
