// Package pipeline wires schema inference, feature engineering, risk
// scoring and insight aggregation into one batch transform over an
// uploaded file.
package pipeline

import (
	"context"
	"fmt"

	"github.com/suyash1912/Kavach/internal/schema"
	"github.com/suyash1912/Kavach/internal/scoring"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewAnalysisPipeline creates the standard 4-step pipeline for
// analyzing an uploaded transaction file. The scorer is selected once
// at startup and may be shared across concurrent runs.
func NewAnalysisPipeline(scorer scoring.Scorer, opts schema.Options) *Pipeline {
	return NewPipeline(
		&NormalizeStep{Options: opts},
		&EngineerStep{},
		&ScoreStep{Scorer: scorer},
		&AggregateStep{},
	)
}

// Run analyzes one uploaded file end to end and returns its snapshot.
func Run(ctx context.Context, scorer scoring.Scorer, opts schema.Options, data []byte, filename string) (*Snapshot, error) {
	state := &PipelineState{FileBytes: data, Filename: filename}
	if err := NewAnalysisPipeline(scorer, opts).Execute(ctx, state); err != nil {
		return nil, err
	}
	return NewSnapshot(state), nil
}
