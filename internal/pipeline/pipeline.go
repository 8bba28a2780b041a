// Package pipeline sequences the founder→investor matching stages:
// extraction, embedding, retrieval, and per-candidate message composition.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/seedscout/seedscout/internal/ai"
	"github.com/seedscout/seedscout/internal/delivery"
	"github.com/seedscout/seedscout/internal/investors"
	"go.uber.org/zap"
)

const (
	defaultResultLimit         = 3
	defaultOverFetchMultiplier = 5
)

// Retriever is the candidate retrieval stage contract.
type Retriever interface {
	Retrieve(ctx context.Context, vector []float32, requiredIndustries []string, overFetchLimit, resultLimit int) ([]*investors.Match, error)
}

// Config bounds the retrieval stage. The source systems disagreed on a
// single correct result size, so both knobs are configuration.
type Config struct {
	ResultLimit         int `mapstructure:"result-limit"`
	OverFetchMultiplier int `mapstructure:"over-fetch-multiplier"`
}

func (c Config) withDefaults() Config {
	if c.ResultLimit <= 0 {
		c.ResultLimit = defaultResultLimit
	}
	if c.OverFetchMultiplier <= 0 {
		c.OverFetchMultiplier = defaultOverFetchMultiplier
	}
	return c
}

// Result is the complete outcome of one pipeline run.
type Result struct {
	Summary    *ai.FounderSummary
	Candidates []*investors.Match
	Outreach   []delivery.Item
	TotalFound int
}

// Pipeline owns the cross-stage contract. Stages 1–3 are sequential and
// fatal on failure; stage 4 is fan-out with per-candidate isolation. The
// pipeline itself never retries: each stage owns its own retry and
// fallback policy.
type Pipeline struct {
	extractor ai.Extractor
	embedder  ai.Embedder
	retriever Retriever
	composer  ai.Composer
	config    Config
	logger    *zap.Logger
}

func New(extractor ai.Extractor, embedder ai.Embedder, retriever Retriever, composer ai.Composer, config Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		embedder:  embedder,
		retriever: retriever,
		composer:  composer,
		config:    config.withDefaults(),
		logger:    logger,
	}
}

// Run executes the full pipeline for one founder profile. Input is
// validated before any external call happens.
func (p *Pipeline) Run(ctx context.Context, input ai.FounderInput) (*Result, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	logger := p.logger.With(zap.String("request_id", uuid.NewString()))

	summary, err := p.extractor.Extract(ctx, input)
	if err != nil {
		return nil, err
	}

	logger.Info("founder summary extracted",
		zap.String("stage", string(summary.Stage)),
		zap.Bool("used_fallback", summary.UsedFallback),
	)

	vector, err := p.embedder.Embed(ctx, EmbeddingText(summary, input.SelectedIndustries))
	if err != nil {
		return nil, err
	}

	overFetch := p.config.ResultLimit * p.config.OverFetchMultiplier
	candidates, err := p.retriever.Retrieve(ctx, vector, input.SelectedIndustries, overFetch, p.config.ResultLimit)
	if err != nil {
		return nil, err
	}

	logger.Info("candidates retrieved", zap.Int("count", len(candidates)))

	if len(candidates) > 0 {
		candidates, err = p.composer.Compose(ctx, summary, input.SelectedIndustries, candidates)
		if err != nil {
			return nil, fmt.Errorf("composing outreach messages: %w", err)
		}
	}

	return &Result{
		Summary:    summary,
		Candidates: candidates,
		Outreach:   BuildBatch(candidates),
		TotalFound: len(candidates),
	}, nil
}

// EmbeddingText assembles the search-vector input from the summary, one
// field per line, omitting absent fields.
func EmbeddingText(summary *ai.FounderSummary, industries []string) string {
	lines := []string{strings.TrimSpace(summary.Summary)}

	if len(summary.KeyStrengths) > 0 {
		lines = append(lines, "Strengths: "+strings.Join(summary.KeyStrengths, ", "))
	}
	lines = append(lines, "Stage: "+string(summary.Stage))
	if len(summary.TractionHighlights) > 0 {
		lines = append(lines, "Traction: "+strings.Join(summary.TractionHighlights, ", "))
	}
	if ask := strings.TrimSpace(summary.FundingAsk); ask != "" {
		lines = append(lines, "Funding ask: "+ask)
	}
	if len(industries) > 0 {
		lines = append(lines, "Industries: "+strings.Join(industries, ", "))
	}

	return strings.Join(lines, "\n")
}

// BuildBatch maps the composed candidates onto the delivery payload.
// Candidates without any usable destination are skipped.
func BuildBatch(candidates []*investors.Match) []delivery.Item {
	batch := make([]delivery.Item, 0, len(candidates))
	for _, candidate := range candidates {
		destination := candidate.Destination()
		if destination == "" {
			continue
		}
		batch = append(batch, delivery.Item{
			Destination: destination,
			Message:     candidate.PersonalizedMessage,
		})
	}
	return batch
}
