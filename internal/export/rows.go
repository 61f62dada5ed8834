package export

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/suyash1912/Kavach/internal/scoring"
)

// ScoredRow is one scored transaction as stored in kavach.scored_transactions.
type ScoredRow struct {
	RunID string `bigquery:"run_id"` // REQUIRED
	RowID int64  `bigquery:"row_id"` // REQUIRED

	UserID    string     `bigquery:"user_id"`
	Timestamp time.Time  `bigquery:"ts"`
	TxDate    civil.Date `bigquery:"tx_date"`
	Amount    float64    `bigquery:"amount"`
	Category  string     `bigquery:"category"`
	Merchant  string     `bigquery:"merchant"`
	Country   string     `bigquery:"country"`

	FraudScore         float64 `bigquery:"fraud_score"`
	RuleBasedFraudFlag bool    `bigquery:"rule_based_fraud_flag"`
	ModelFraudFlag     bool    `bigquery:"model_fraud_flag"`
	VelocityFlag       bool    `bigquery:"velocity_flag"`
	ZScoreAmount       float64 `bigquery:"zscore_amount"`
}

// AnalysisRunRow is one pipeline run as stored in kavach.analysis_runs.
type AnalysisRunRow struct {
	RunID      string `bigquery:"run_id"`      // REQUIRED
	SourceFile string `bigquery:"source_file"` // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string             `bigquery:"status"`        // NULLABLE
	ErrorMessage string             `bigquery:"error_message"` // NULLABLE
	RowCount     bigquery.NullInt64 `bigquery:"row_count"`     // NULLABLE
}

// buildScoredRows projects a scored table into its export shape.
func buildScoredRows(runID string, txs []scoring.Transaction) []*ScoredRow {
	rows := make([]*ScoredRow, len(txs))
	for i := range txs {
		tx := &txs[i]
		rows[i] = &ScoredRow{
			RunID:              runID,
			RowID:              int64(i),
			UserID:             tx.UserID,
			Timestamp:          tx.Timestamp,
			TxDate:             civil.DateOf(tx.Timestamp),
			Amount:             tx.Amount,
			Category:           tx.Category,
			Merchant:           tx.Merchant,
			Country:            tx.Country,
			FraudScore:         tx.FraudScore,
			RuleBasedFraudFlag: tx.RuleBasedFraudFlag,
			ModelFraudFlag:     tx.ModelFraudFlag,
			VelocityFlag:       tx.VelocityFlag,
			ZScoreAmount:       tx.ZScoreAmount,
		}
	}
	return rows
}
