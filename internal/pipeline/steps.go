package pipeline

import (
	"context"

	"github.com/suyash1912/Kavach/internal/features"
	"github.com/suyash1912/Kavach/internal/insights"
	"github.com/suyash1912/Kavach/internal/logger"
	"github.com/suyash1912/Kavach/internal/schema"
	"github.com/suyash1912/Kavach/internal/scoring"
)

// PipelineStep represents a single stage in the analysis pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline stages.
// Each stage consumes the full output of the previous one; no stage
// mutates a table another invocation might read.
type PipelineState struct {
	FileBytes []byte
	Filename  string

	Transactions []schema.CanonicalTransaction
	Engineered   []features.Transaction
	Scored       []scoring.Transaction

	Insights   insights.Insights
	FraudCases []insights.FraudCase
	Clusters   []insights.RiskCluster
}

// Step 1: NormalizeStep infers the canonical schema from the raw file.
type NormalizeStep struct {
	Options schema.Options
}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	txs, err := schema.NormalizeWithOptions(state.FileBytes, state.Filename, s.Options)
	if err != nil {
		return err
	}
	state.Transactions = txs
	log := logger.FromContext(ctx)
	log.Debug().
		Str("file", state.Filename).
		Int("rows", len(txs)).
		Msg("normalized canonical table")
	return nil
}

// Step 2: EngineerStep derives behavioral features per account.
type EngineerStep struct{}

func (s *EngineerStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Engineered = features.Engineer(state.Transactions, features.Options{FoldLabels: true})
	log := logger.FromContext(ctx)
	log.Debug().
		Int("rows", len(state.Engineered)).
		Msg("engineered features")
	return nil
}

// Step 3: ScoreStep assigns a fraud score to every transaction.
type ScoreStep struct {
	Scorer scoring.Scorer
}

func (s *ScoreStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Scored = s.Scorer.Score(state.Engineered)
	return nil
}

// Step 4: AggregateStep reduces the scored table to dashboard output.
type AggregateStep struct{}

func (s *AggregateStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Insights, state.FraudCases, state.Clusters = insights.Aggregate(state.Scored)
	log := logger.FromContext(ctx)
	log.Debug().
		Int("fraud_cases", len(state.FraudCases)).
		Int("clusters", len(state.Clusters)).
		Msg("aggregated insights")
	return nil
}
