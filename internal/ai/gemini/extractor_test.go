package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/seedscout/seedscout/internal/ai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type stubJSONGenerator struct {
	response   string
	err        error
	calls      int
	lastPrompt string
	lastSchema *genai.Schema
}

func (s *stubJSONGenerator) GenerateJSON(_ context.Context, prompt string, schema *genai.Schema, _ int32) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	s.lastSchema = schema
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func founderInput() ai.FounderInput {
	return ai.FounderInput{
		AboutYou:           "Ex-Google engineer, 10 years ML",
		AboutStartup:       "B2B analytics SaaS, $50k MRR, 20 customers",
		SelectedIndustries: []string{"Data & AI"},
	}
}

func TestExtract(t *testing.T) {
	stub := &stubJSONGenerator{response: `{
		"summary": "Ex-Google ML engineer building a B2B analytics SaaS at $50k MRR.",
		"key_strengths": ["10 years of ML at Google", "enterprise SaaS experience"],
		"stage": "seed",
		"traction_highlights": ["$50k MRR", "20 customers"],
		"funding_ask": "$1.5M seed"
	}`}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	summary, err := extractor.Extract(context.Background(), founderInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.UsedFallback {
		t.Fatalf("expected genuine extraction, got fallback")
	}
	if summary.Stage != ai.StageSeed {
		t.Fatalf("unexpected stage: %v", summary.Stage)
	}
	if len(summary.KeyStrengths) != 2 || summary.FundingAsk != "$1.5M seed" {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if !strings.Contains(stub.lastPrompt, "<founder>") || !strings.Contains(stub.lastPrompt, "Ex-Google engineer") {
		t.Fatalf("expected founder text behind delimiters, got: %s", stub.lastPrompt)
	}
	if stub.lastSchema == nil || stub.lastSchema.Type != genai.TypeObject {
		t.Fatalf("expected an object response schema")
	}
}

func TestExtractFallbackOnInvalidJSON(t *testing.T) {
	stub := &stubJSONGenerator{response: `this is not json`}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	summary, err := extractor.Extract(context.Background(), founderInput())
	if err != nil {
		t.Fatalf("schema failure must not propagate, got: %v", err)
	}

	if !summary.UsedFallback {
		t.Fatalf("expected fallback summary")
	}
	if summary.Stage != ai.StageSeed {
		t.Fatalf("fallback stage must be seed, got %v", summary.Stage)
	}
	if !strings.Contains(summary.Summary, "Ex-Google engineer") {
		t.Fatalf("fallback summary must be built from raw input, got %q", summary.Summary)
	}
	if err := summary.Validate(); err != nil {
		t.Fatalf("fallback summary must satisfy the schema bounds: %v", err)
	}
}

func TestExtractFallbackOnOutOfBoundsOutput(t *testing.T) {
	stub := &stubJSONGenerator{response: `{
		"summary": "ok",
		"key_strengths": [],
		"stage": "seed",
		"traction_highlights": []
	}`}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	summary, err := extractor.Extract(context.Background(), founderInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.UsedFallback {
		t.Fatalf("expected fallback for out-of-bounds output")
	}
}

func TestExtractFatalOnCallFailure(t *testing.T) {
	stub := &stubJSONGenerator{err: errors.New("quota exceeded")}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	_, err := extractor.Extract(context.Background(), founderInput())
	if !errors.Is(err, ai.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestFallbackSummaryTruncates(t *testing.T) {
	input := ai.FounderInput{
		AboutYou:           strings.Repeat("a", ai.MaxSummaryRunes),
		AboutStartup:       strings.Repeat("b", ai.MaxSummaryRunes),
		SelectedIndustries: []string{"Fintech"},
	}

	summary := FallbackSummary(input)
	if count := len([]rune(summary.Summary)); count != ai.MaxSummaryRunes {
		t.Fatalf("expected summary truncated to %d runes, got %d", ai.MaxSummaryRunes, count)
	}
}

func TestExtractJSONStripsFences(t *testing.T) {
	raw := "```json\n{\"summary\": \"x\"}\n```"
	if got := extractJSON(raw); got != `{"summary": "x"}` {
		t.Fatalf("unexpected cleaned json: %q", got)
	}
}
