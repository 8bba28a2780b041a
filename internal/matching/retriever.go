// Package matching turns a founder embedding into a ranked, filtered list
// of investor candidates.
package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/seedscout/seedscout/internal/investors"
	"go.uber.org/zap"
)

// ErrRetrievalFailed marks vector-index or lookup unavailability. An empty
// candidate list is not a failure.
var ErrRetrievalFailed = errors.New("investor retrieval failed")

// Step describes the result of one retrieval pass, mirroring how the
// similarity hits were narrowed down.
type Step struct {
	Hits     int
	Missing  int
	Filtered int
	Kept     int
}

// Retriever over-fetches nearest neighbors from the vector index, hydrates
// full records, applies the industry post-filter and truncates to the final
// result size.
//
// The industry filter runs here, not in the index query: the index filter
// predicate is limited to scalar equality and cannot test set membership
// against an array field. Over-fetching compensates for candidates the
// filter drops.
type Retriever struct {
	index  investors.Index
	store  investors.Store
	logger *zap.Logger
}

func NewRetriever(index investors.Index, store investors.Store, logger *zap.Logger) *Retriever {
	return &Retriever{index: index, store: store, logger: logger}
}

// Retrieve returns at most resultLimit candidates sharing an industry with
// requiredIndustries, in descending similarity order. The output order is a
// stable sub-sequence of the index's order: hydration and filtering drop
// entries but never reorder them.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, requiredIndustries []string, overFetchLimit, resultLimit int) ([]*investors.Match, error) {
	hits, err := r.index.SearchSimilar(ctx, vector, overFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %v", ErrRetrievalFailed, err)
	}

	step := Step{Hits: len(hits)}
	matches := make([]*investors.Match, 0, resultLimit)

	for _, hit := range hits {
		record, err := r.store.GetByID(ctx, hit.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: hydrate record %s: %v", ErrRetrievalFailed, hit.ID, err)
		}

		// Deleted between indexing and lookup.
		if record == nil {
			step.Missing++
			continue
		}

		if !record.SharesIndustry(requiredIndustries) {
			step.Filtered++
			continue
		}

		matches = append(matches, &investors.Match{Record: *record, Score: hit.Score})
	}

	if len(matches) > resultLimit {
		matches = matches[:resultLimit]
	}
	step.Kept = len(matches)

	r.logger.Info("retrieval step",
		zap.Int("hits", step.Hits),
		zap.Int("missing", step.Missing),
		zap.Int("filtered_out", step.Filtered),
		zap.Int("kept", step.Kept),
	)

	return matches, nil
}
