package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seedscout/seedscout/internal/ai"
	"github.com/seedscout/seedscout/internal/utils"
	"google.golang.org/genai"
)

const (
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "gemini-embedding-001"
	defaultDimensions     = 768

	retryBaseDelay = 500 * time.Millisecond
)

// Config carries the Gemini provider settings.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Dimensions     int
	MaxRetries     int
}

// Generator wraps the Google GenAI client to provide the three external
// capabilities the pipeline needs: free-text generation, schema-constrained
// generation, and embeddings.
type Generator struct {
	client         *genai.Client
	modelName      string
	embeddingModel string
	dimensions     int
	maxRetries     int
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, config Config) (*Generator, error) {
	apiKey := strings.TrimSpace(config.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = defaultModel
	}

	embeddingModel := strings.TrimSpace(config.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}

	dimensions := config.Dimensions
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}

	return &Generator{
		client:         client,
		modelName:      model,
		embeddingModel: embeddingModel,
		dimensions:     dimensions,
		maxRetries:     config.MaxRetries,
	}, nil
}

// GenerateContent sends the prompt to Gemini and returns the first textual
// response. The config may pin temperature, token budget, response schema
// and system instructions.
func (g *Generator) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			if err := utils.WaitFor(ctx, time.Duration(attempt)*retryBaseDelay); err != nil {
				return "", err
			}
		}

		resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
		if err != nil {
			lastErr = fmt.Errorf("generate content: %w", err)
			continue
		}

		output := collectText(resp)
		if output == "" {
			lastErr = errors.New("gemini api returned empty response")
			continue
		}

		return output, nil
	}

	return "", lastErr
}

// GenerateJSON sends the prompt with a pinned zero temperature and the
// provided response schema, returning the raw JSON text.
func (g *Generator) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, maxTokens int32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		MaxOutputTokens:  maxTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	return g.GenerateContent(ctx, prompt, config)
}

// Embed converts the text blob into a vector of the configured
// dimensionality. A provider vector of any other length is an error, never
// silently truncated or padded.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: embedding text is empty", ai.ErrInvalidInput)
	}

	if g == nil || g.client == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	config := &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(g.dimensions)),
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("gemini api returned no embeddings")
	}

	vector := resp.Embeddings[0].Values
	if err := checkDimensions(vector, g.dimensions); err != nil {
		return nil, err
	}

	return vector, nil
}

// Dimensions returns the configured embedding dimensionality.
func (g *Generator) Dimensions() int {
	if g == nil {
		return 0
	}
	return g.dimensions
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

func checkDimensions(vector []float32, want int) error {
	if len(vector) != want {
		return fmt.Errorf("%w: got %d values, index expects %d", ai.ErrEmbeddingDimensionMismatch, len(vector), want)
	}
	return nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
