package export

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/suyash1912/Kavach/internal/features"
	"github.com/suyash1912/Kavach/internal/schema"
	"github.com/suyash1912/Kavach/internal/scoring"
)

func TestBuildScoredRows(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	txs := []scoring.Transaction{
		{
			Transaction: features.Transaction{
				CanonicalTransaction: schema.CanonicalTransaction{
					UserID:    "u1",
					Timestamp: ts,
					Amount:    125.50,
					Category:  "food",
					Merchant:  "acme",
					Country:   "IN",
				},
				VelocityFlag:       true,
				ZScoreAmount:       1.5,
				RuleBasedFraudFlag: true,
			},
			FraudScore:     0.9,
			ModelFraudFlag: true,
		},
		{
			Transaction: features.Transaction{
				CanonicalTransaction: schema.CanonicalTransaction{
					UserID:    "u2",
					Timestamp: ts.AddDate(0, 0, 1),
					Amount:    10,
					Category:  "rent",
					Merchant:  "landlord",
					Country:   "IN",
				},
			},
		},
	}

	rows := buildScoredRows("run-42", txs)

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	first := rows[0]
	if first.RunID != "run-42" || first.RowID != 0 {
		t.Fatalf("row identity = %s/%d, want run-42/0", first.RunID, first.RowID)
	}
	if first.TxDate != civil.DateOf(ts) {
		t.Fatalf("tx_date = %v, want %v", first.TxDate, civil.DateOf(ts))
	}
	if first.FraudScore != 0.9 || !first.RuleBasedFraudFlag || !first.ModelFraudFlag || !first.VelocityFlag {
		t.Fatalf("risk fields lost in projection: %+v", first)
	}
	if rows[1].RowID != 1 || rows[1].UserID != "u2" {
		t.Fatalf("second row = %+v", rows[1])
	}
}

func TestBuildScoredRowsEmpty(t *testing.T) {
	if rows := buildScoredRows("run-1", nil); len(rows) != 0 {
		t.Fatalf("empty table produced %d rows", len(rows))
	}
}
