// Package scoring assigns a fraud risk score to every engineered
// transaction, with or without a trained model bundle.
package scoring

import (
	"math"

	"github.com/suyash1912/Kavach/internal/features"
)

// modelFlagThreshold buckets model probabilities into a boolean flag
// for display. It is a fixed UI constant, not a training-time decision
// boundary.
const modelFlagThreshold = 0.6

// Transaction is an engineered transaction with its final risk verdict.
type Transaction struct {
	features.Transaction

	FraudScore     float64 `json:"fraud_score"`
	ModelFraudFlag bool    `json:"model_fraud_flag"`
}

// Scorer assigns fraud scores to a full engineered table. Scoring is a
// pure batch transform; implementations must be safe for concurrent
// use across pipeline runs.
type Scorer interface {
	Score(txs []features.Transaction) []Transaction
}

// NewScorer selects the scoring variant once at startup: rule-based
// when no bundle is available, model-assisted otherwise.
func NewScorer(b *Bundle) Scorer {
	if b == nil {
		return RuleBasedScorer{}
	}
	return ModelAssistedScorer{Bundle: b}
}

// RuleBasedScorer is the degenerate fallback used without a trained
// model: the rule-based flag becomes the score, so the pipeline stays
// usable end to end.
type RuleBasedScorer struct{}

func (RuleBasedScorer) Score(txs []features.Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = Transaction{Transaction: tx}
		if tx.RuleBasedFraudFlag {
			out[i].FraudScore = 1.0
		}
		out[i].ModelFraudFlag = tx.RuleBasedFraudFlag
	}
	return out
}

// ModelAssistedScorer scores with the bundle's fitted transform and
// classifier. The bundle is read-only; one instance may back any
// number of concurrent scorers.
type ModelAssistedScorer struct {
	Bundle *Bundle
}

func (s ModelAssistedScorer) Score(txs []features.Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		vec := s.Bundle.featureVector(&tx)
		p := sigmoid(dot(s.Bundle.Classifier.Weights, vec) + s.Bundle.Classifier.Intercept)
		out[i] = Transaction{
			Transaction:    tx,
			FraudScore:     p,
			ModelFraudFlag: p > modelFlagThreshold,
		}
	}
	return out
}

func dot(w, x []float64) float64 {
	var sum float64
	for i := range w {
		sum += w[i] * x[i]
	}
	return sum
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
