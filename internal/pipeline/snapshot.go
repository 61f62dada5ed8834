package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/suyash1912/Kavach/internal/insights"
	"github.com/suyash1912/Kavach/internal/scoring"
)

// Snapshot is the immutable result of one pipeline run. Snapshots are
// scoped to the caller that requested the run; there is no shared
// latest-snapshot state between concurrent uploads.
type Snapshot struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`

	Transactions []scoring.Transaction  `json:"transactions"`
	Insights     insights.Insights      `json:"insights"`
	FraudCases   []insights.FraudCase   `json:"fraud_cases"`
	Clusters     []insights.RiskCluster `json:"clusters"`
}

// NewSnapshot freezes the final pipeline state under a fresh run ID.
func NewSnapshot(state *PipelineState) *Snapshot {
	return &Snapshot{
		ID:           uuid.New().String(),
		Filename:     state.Filename,
		CreatedAt:    time.Now().UTC(),
		Transactions: state.Scored,
		Insights:     state.Insights,
		FraudCases:   state.FraudCases,
		Clusters:     state.Clusters,
	}
}

// Report is the aggregate output schema consumed by the dashboard and
// reporting collaborators.
type Report struct {
	TotalSpend      float64                  `json:"total_spend"`
	TopCategories   []insights.CategoryTotal `json:"top_categories"`
	MonthlyTrends   []insights.MonthlyTotal  `json:"monthly_trends"`
	UserSummaries   []insights.UserSummary   `json:"user_summaries"`
	FraudTable      []insights.FraudCase     `json:"fraud_table"`
	ClusterInsights []insights.RiskCluster   `json:"cluster_insights"`
}

// Report projects the snapshot into the aggregate output schema.
func (s *Snapshot) Report() Report {
	return Report{
		TotalSpend:      s.Insights.TotalSpend,
		TopCategories:   s.Insights.TopCategories,
		MonthlyTrends:   s.Insights.MonthlyTrends,
		UserSummaries:   s.Insights.UserSummaries,
		FraudTable:      s.FraudCases,
		ClusterInsights: s.Clusters,
	}
}

// Insights reassembles the summary section of a decoded report, for
// callers that work from a saved report file rather than a live
// snapshot.
func (r Report) Insights() insights.Insights {
	return insights.Insights{
		TotalSpend:    r.TotalSpend,
		TopCategories: r.TopCategories,
		MonthlyTrends: r.MonthlyTrends,
		UserSummaries: r.UserSummaries,
	}
}

// MarshalReport serializes the report for upload or local inspection.
func (s *Snapshot) MarshalReport() ([]byte, error) {
	data, err := json.MarshalIndent(s.Report(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}
