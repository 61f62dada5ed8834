package insights

import (
	"testing"
	"time"

	"github.com/suyash1912/Kavach/internal/features"
	"github.com/suyash1912/Kavach/internal/schema"
	"github.com/suyash1912/Kavach/internal/scoring"
)

func scored(user string, ts time.Time, amount float64, category, country string, score float64) scoring.Transaction {
	return scoring.Transaction{
		Transaction: features.Transaction{
			CanonicalTransaction: schema.CanonicalTransaction{
				UserID:    user,
				Timestamp: ts,
				Amount:    amount,
				Category:  category,
				Merchant:  "acme",
				Country:   country,
			},
		},
		FraudScore: score,
	}
}

func at(month, day int) time.Time {
	return time.Date(2024, time.Month(month), day, 10, 30, 0, 0, time.UTC)
}

func TestAggregateEmptyInput(t *testing.T) {
	summary, cases, clusters := Aggregate(nil)
	if summary.TotalSpend != 0 {
		t.Fatalf("total spend = %v, want 0", summary.TotalSpend)
	}
	if len(summary.TopCategories) != 0 || len(summary.MonthlyTrends) != 0 || len(summary.UserSummaries) != 0 {
		t.Fatal("empty input produced non-empty summary sections")
	}
	if len(cases) != 0 || len(clusters) != 0 {
		t.Fatal("empty input produced fraud cases or clusters")
	}
}

func TestAggregateSummary(t *testing.T) {
	in := []scoring.Transaction{
		scored("u1", at(1, 5), 100, "food", "IN", 0),
		scored("u1", at(1, 20), 50, "travel", "IN", 0),
		scored("u2", at(2, 3), 200, "food", "IN", 0),
	}
	summary, _, _ := Aggregate(in)

	if summary.TotalSpend != 350 {
		t.Fatalf("total spend = %v, want 350", summary.TotalSpend)
	}

	if len(summary.TopCategories) != 2 {
		t.Fatalf("got %d categories, want 2", len(summary.TopCategories))
	}
	if summary.TopCategories[0].Category != "food" || summary.TopCategories[0].TotalSpend != 300 {
		t.Fatalf("top category = %+v, want food/300", summary.TopCategories[0])
	}

	wantMonths := []MonthlyTotal{
		{Month: "2024-01", TotalSpend: 150},
		{Month: "2024-02", TotalSpend: 200},
	}
	if len(summary.MonthlyTrends) != len(wantMonths) {
		t.Fatalf("got %d months, want %d", len(summary.MonthlyTrends), len(wantMonths))
	}
	for i, w := range wantMonths {
		if summary.MonthlyTrends[i] != w {
			t.Errorf("month %d = %+v, want %+v", i, summary.MonthlyTrends[i], w)
		}
	}

	if len(summary.UserSummaries) != 2 {
		t.Fatalf("got %d user summaries, want 2", len(summary.UserSummaries))
	}
	u1 := summary.UserSummaries[0]
	if u1.UserID != "u1" || u1.TotalSpend != 150 || u1.AvgTransaction != 75 || u1.TxCount != 2 {
		t.Fatalf("u1 summary = %+v", u1)
	}
}

func TestFraudTableFilterAndOrder(t *testing.T) {
	in := []scoring.Transaction{
		scored("u1", at(1, 1), 10, "food", "IN", 0.2),
		scored("u1", at(1, 2), 20, "food", "IN", 0.6),
		scored("u1", at(1, 3), 30, "food", "IN", 0.9),
	}
	_, cases, _ := Aggregate(in)

	if len(cases) != 2 {
		t.Fatalf("got %d fraud cases, want 2", len(cases))
	}
	if cases[0].FraudScore != 0.9 || cases[1].FraudScore != 0.6 {
		t.Fatalf("fraud scores = [%v, %v], want [0.9, 0.6]", cases[0].FraudScore, cases[1].FraudScore)
	}
	if cases[0].ID != 2 || cases[1].ID != 1 {
		t.Fatalf("fraud case ids = [%d, %d], want [2, 1]", cases[0].ID, cases[1].ID)
	}
	if cases[0].Timestamp != "2024-01-03T10:30:00" {
		t.Fatalf("timestamp = %q, want ISO-8601", cases[0].Timestamp)
	}
}

func TestFraudTableIncludesRuleFlaggedRows(t *testing.T) {
	flagged := scored("u1", at(1, 1), 10, "food", "IN", 0.0)
	flagged.RuleBasedFraudFlag = true

	_, cases, _ := Aggregate([]scoring.Transaction{
		flagged,
		scored("u1", at(1, 2), 20, "food", "IN", 0.1),
	})

	if len(cases) != 1 {
		t.Fatalf("got %d fraud cases, want 1", len(cases))
	}
	if !cases[0].RuleBasedFraudFlag {
		t.Fatal("rule flag lost in projection")
	}
}

func TestRiskClustersTopFive(t *testing.T) {
	mk := func(user string, day int, cat, country string, score, velocity float64) scoring.Transaction {
		tx := scored(user, at(1, day), 10, cat, country, score)
		tx.UserTxVelocityPerDay = velocity
		return tx
	}
	in := []scoring.Transaction{
		mk("u1", 1, "food", "IN", 1.0, 2),
		mk("u2", 2, "travel", "US", 0.5, 8),
		mk("u3", 3, "rent", "FR", 0.25, 4),
		mk("u4", 4, "gifts", "DE", 0.1, 1),
	}
	_, _, clusters := Aggregate(in)

	if len(clusters) != 5 {
		t.Fatalf("got %d clusters, want 5", len(clusters))
	}
	if clusters[0].Name != "Category spike: food" || clusters[0].Score != 1.0 {
		t.Fatalf("top cluster = %+v", clusters[0])
	}
	for i := 1; i < len(clusters); i++ {
		if clusters[i].Score > clusters[i-1].Score {
			t.Fatalf("clusters not sorted descending: %+v", clusters)
		}
	}
	// u2 has the top mean velocity and normalizes to 1.0.
	found := false
	for _, c := range clusters {
		if c.Name == "Velocity burst: u2" {
			found = true
			if c.Score != 1.0 {
				t.Fatalf("velocity burst score = %v, want 1.0", c.Score)
			}
		}
	}
	if !found {
		t.Fatal("top velocity user missing from clusters")
	}
}

func TestRiskClustersNormalizeAgainstMaxScore(t *testing.T) {
	in := []scoring.Transaction{
		scored("u1", at(1, 1), 10, "food", "IN", 0.4),
		scored("u1", at(1, 2), 10, "food", "IN", 0.2),
	}
	_, _, clusters := Aggregate(in)

	for _, c := range clusters {
		if c.Name == "Category spike: food" {
			// normalized scores 1.0 and 0.5 average to 0.75
			if c.Score != 0.75 {
				t.Fatalf("category cluster score = %v, want 0.75", c.Score)
			}
			return
		}
	}
	t.Fatal("category cluster missing")
}
