package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seedscout/seedscout/internal/investors"
)

var (
	// ErrInvalidInput marks founder input rejected before any external call.
	ErrInvalidInput = errors.New("invalid founder input")
	// ErrExtractionFailed marks a non-recoverable summarization failure
	// (network, auth, quota). Schema-level failures never surface as this;
	// they degrade to the deterministic fallback summary instead.
	ErrExtractionFailed = errors.New("founder summary extraction failed")
	// ErrEmbeddingDimensionMismatch marks a provider vector whose length
	// differs from the configured index dimensionality.
	ErrEmbeddingDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Stage is the fundraising stage of a startup.
type Stage string

const (
	StagePreSeed Stage = "pre-seed"
	StageSeed    Stage = "seed"
	StageSeriesA Stage = "series-a"
	StageSeriesB Stage = "series-b"
	StageGrowth  Stage = "growth"
)

const (
	// MaxSummaryRunes bounds the extracted summary text.
	MaxSummaryRunes = 400
	// MaxListItems bounds key strengths and traction highlights.
	MaxListItems = 5
)

// Stages lists every valid stage value, in funnel order.
func Stages() []Stage {
	return []Stage{StagePreSeed, StageSeed, StageSeriesA, StageSeriesB, StageGrowth}
}

// ParseStage normalizes a raw stage string. The bool reports whether the
// input mapped to a known stage.
func ParseStage(raw string) (Stage, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.ReplaceAll(normalized, "_", "-")
	for _, stage := range Stages() {
		if normalized == string(stage) {
			return stage, true
		}
	}
	return StageSeed, false
}

// FounderInput is the raw per-request founder profile. It is immutable and
// discarded when the pipeline returns.
type FounderInput struct {
	AboutYou           string
	AboutStartup       string
	SelectedIndustries []string
}

// Validate rejects input that must never reach an external call.
func (in *FounderInput) Validate() error {
	if strings.TrimSpace(in.AboutYou) == "" {
		return fmt.Errorf("%w: about_you is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(in.AboutStartup) == "" {
		return fmt.Errorf("%w: about_startup is empty", ErrInvalidInput)
	}
	if len(in.SelectedIndustries) == 0 {
		return fmt.Errorf("%w: no industries selected", ErrInvalidInput)
	}
	return nil
}

// FounderSummary is the structured extraction result. UsedFallback is set
// when the summary was synthesized locally because the model output failed
// schema validation.
type FounderSummary struct {
	Summary            string   `json:"summary"`
	KeyStrengths       []string `json:"key_strengths"`
	Stage              Stage    `json:"stage"`
	TractionHighlights []string `json:"traction_highlights"`
	FundingAsk         string   `json:"funding_ask,omitempty"`
	UsedFallback       bool     `json:"used_fallback"`
}

// Validate checks the schema bounds: a summary is either fully populated
// and within bounds, or it is replaced by the fallback.
func (s *FounderSummary) Validate() error {
	if strings.TrimSpace(s.Summary) == "" {
		return fmt.Errorf("summary is empty")
	}
	if count := len([]rune(s.Summary)); count > MaxSummaryRunes {
		return fmt.Errorf("summary exceeds %d runes: %d", MaxSummaryRunes, count)
	}
	if len(s.KeyStrengths) == 0 || len(s.KeyStrengths) > MaxListItems {
		return fmt.Errorf("key strengths count out of bounds: %d", len(s.KeyStrengths))
	}
	if len(s.TractionHighlights) > MaxListItems {
		return fmt.Errorf("traction highlights count out of bounds: %d", len(s.TractionHighlights))
	}
	if _, ok := ParseStage(string(s.Stage)); !ok {
		return fmt.Errorf("unknown stage: %q", s.Stage)
	}
	return nil
}

// Extractor turns free-text founder input into a validated summary.
type Extractor interface {
	Extract(ctx context.Context, input FounderInput) (*FounderSummary, error)
}

// Embedder turns a text blob into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Composer drafts a personalized outreach message per candidate. The
// returned slice has the same length and order as the input; a candidate
// whose generation failed carries an empty message.
type Composer interface {
	Compose(ctx context.Context, summary *FounderSummary, industries []string, candidates []*investors.Match) ([]*investors.Match, error)
}
