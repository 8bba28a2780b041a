package gemini

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"unicode/utf8"

	_ "embed"

	"github.com/seedscout/seedscout/internal/ai"
	"github.com/seedscout/seedscout/internal/investors"
	"github.com/seedscout/seedscout/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

//go:embed compose_prompt.md
var composePromptTemplate string

const (
	defaultMaxLogLength = 200

	composeTemperature        = 0.8
	composeMaxTokens          = 220
	defaultComposeConcurrency = 8
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// Composer drafts one personalized outreach message per candidate. All
// candidates are processed concurrently and independently; a failed branch
// yields an empty message for that candidate only.
type Composer struct {
	generator     contentGenerator
	logger        *zap.Logger
	maxConcurrent int
	maxLogLen     int
}

func NewComposer(generator contentGenerator, logger *zap.Logger, maxConcurrent, maxLogLength int) *Composer {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultComposeConcurrency
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Composer{
		generator:     generator,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		maxLogLen:     maxLogLength,
	}
}

// Compose fans out one generation call per candidate, bounded by the
// configured concurrency, and collects results positionally so the output
// order always matches the input order regardless of completion order.
func (c *Composer) Compose(ctx context.Context, summary *ai.FounderSummary, industries []string, candidates []*investors.Match) ([]*investors.Match, error) {
	results := make([]*investors.Match, len(candidates))
	sem := make(chan struct{}, c.maxConcurrent)

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate *investors.Match) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			composed := *candidate
			composed.PersonalizedMessage = c.composeOne(ctx, summary, industries, candidate)
			results[i] = &composed
		}(i, candidate)
	}
	wg.Wait()

	return results, nil
}

func (c *Composer) composeOne(ctx context.Context, summary *ai.FounderSummary, industries []string, candidate *investors.Match) string {
	prompt, err := buildComposePrompt(summary, industries, candidate)
	if err != nil {
		c.logger.Warn("building compose prompt failed",
			zap.String("investor_id", candidate.ID),
			zap.Error(err),
		)
		return ""
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](composeTemperature),
		MaxOutputTokens: composeMaxTokens,
	}

	message, err := c.generator.GenerateContent(ctx, prompt, config)
	if err != nil {
		c.logger.Warn("message generation failed, leaving message empty",
			zap.String("investor_id", candidate.ID),
			zap.Error(err),
		)
		return ""
	}

	c.logger.Debug("message generated",
		zap.String("investor_id", candidate.ID),
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, c.maxLogLen)),
	)

	return strings.TrimSpace(message)
}

func buildComposePrompt(summary *ai.FounderSummary, industries []string, candidate *investors.Match) (string, error) {
	founderPayload := map[string]any{
		"summary":             summary.Summary,
		"key_strengths":       summary.KeyStrengths,
		"stage":               summary.Stage,
		"traction_highlights": summary.TractionHighlights,
		"target_industries":   industries,
	}
	if summary.FundingAsk != "" {
		founderPayload["funding_ask"] = summary.FundingAsk
	}

	investorPayload := map[string]any{
		"name":       candidate.Name,
		"industries": candidate.Industries,
	}
	if candidate.Firm != "" {
		investorPayload["firm"] = candidate.Firm
	}
	if candidate.Position != "" {
		investorPayload["position"] = candidate.Position
	}
	if candidate.Thesis != "" {
		investorPayload["thesis"] = candidate.Thesis
	}

	founderJSON, err := json.MarshalIndent(founderPayload, "", "  ")
	if err != nil {
		return "", err
	}

	investorJSON, err := json.MarshalIndent(investorPayload, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := strings.ReplaceAll(composePromptTemplate, "{{FIRST_NAME}}", candidate.FirstName())
	prompt = strings.ReplaceAll(prompt, "{{FOUNDER_JSON}}", string(founderJSON))
	prompt = strings.ReplaceAll(prompt, "{{INVESTOR_JSON}}", string(investorJSON))
	return prompt, nil
}
