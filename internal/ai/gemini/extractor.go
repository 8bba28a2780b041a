package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/seedscout/seedscout/internal/ai"
	"github.com/seedscout/seedscout/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

//go:embed extract_prompt.md
var extractPromptTemplate string

const (
	extractMaxTokens = 1024

	fallbackStrength = "Hands-on founder building in the space"
	fallbackTraction = "Early progress described in the profile"
)

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, maxTokens int32) (string, error)
}

// Extractor produces a validated FounderSummary from free-text input via a
// schema-constrained, zero-temperature generation call.
type Extractor struct {
	generator jsonGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewExtractor(generator jsonGenerator, logger *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Extractor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Extract runs the extraction call. Model output that fails schema
// validation degrades to a deterministic fallback summary built from the
// raw input; only transport-level failures propagate.
func (e *Extractor) Extract(ctx context.Context, input ai.FounderInput) (*ai.FounderSummary, error) {
	prompt := buildExtractPrompt(input)

	e.logger.Debug("summary extraction request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateJSON(ctx, prompt, founderSummarySchema(), extractMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrExtractionFailed, err)
	}

	e.logger.Debug("summary extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	summary, err := parseSummary(raw)
	if err != nil {
		e.logger.Warn("extraction output failed validation, using fallback summary", zap.Error(err))
		return FallbackSummary(input), nil
	}

	return summary, nil
}

// FallbackSummary synthesizes a deterministic summary directly from the raw
// input fields. It always satisfies the FounderSummary bounds.
func FallbackSummary(input ai.FounderInput) *ai.FounderSummary {
	text := strings.TrimSpace(strings.TrimSpace(input.AboutYou) + " " + strings.TrimSpace(input.AboutStartup))

	return &ai.FounderSummary{
		Summary:            truncateRunes(text, ai.MaxSummaryRunes),
		KeyStrengths:       []string{fallbackStrength},
		Stage:              ai.StageSeed,
		TractionHighlights: []string{fallbackTraction},
		UsedFallback:       true,
	}
}

func buildExtractPrompt(input ai.FounderInput) string {
	prompt := strings.ReplaceAll(extractPromptTemplate, "{{ABOUT_YOU}}", strings.TrimSpace(input.AboutYou))
	prompt = strings.ReplaceAll(prompt, "{{ABOUT_STARTUP}}", strings.TrimSpace(input.AboutStartup))
	prompt = strings.ReplaceAll(prompt, "{{INDUSTRIES}}", strings.Join(input.SelectedIndustries, ", "))
	return prompt
}

func founderSummarySchema() *genai.Schema {
	stages := make([]string, 0, len(ai.Stages()))
	for _, stage := range ai.Stages() {
		stages = append(stages, string(stage))
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {Type: genai.TypeString},
			"key_strengths": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"stage": {
				Type: genai.TypeString,
				Enum: stages,
			},
			"traction_highlights": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"funding_ask": {Type: genai.TypeString},
		},
		Required: []string{"summary", "key_strengths", "stage", "traction_highlights"},
	}
}

func parseSummary(raw string) (*ai.FounderSummary, error) {
	cleaned := extractJSON(raw)

	var wire struct {
		Summary            string   `json:"summary"`
		KeyStrengths       []string `json:"key_strengths"`
		Stage              string   `json:"stage"`
		TractionHighlights []string `json:"traction_highlights"`
		FundingAsk         string   `json:"funding_ask"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	stage, ok := ai.ParseStage(wire.Stage)
	if !ok {
		return nil, fmt.Errorf("extraction returned unknown stage: %q", wire.Stage)
	}

	summary := &ai.FounderSummary{
		Summary:            strings.TrimSpace(wire.Summary),
		KeyStrengths:       trimNonEmpty(wire.KeyStrengths),
		Stage:              stage,
		TractionHighlights: trimNonEmpty(wire.TractionHighlights),
		FundingAsk:         strings.TrimSpace(wire.FundingAsk),
	}

	if err := summary.Validate(); err != nil {
		return nil, fmt.Errorf("extraction output out of bounds: %w", err)
	}

	return summary, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func trimNonEmpty(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
