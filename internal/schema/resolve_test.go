package schema

import "testing"

func statsFor(columns []string, rows [][]string) []columnStats {
	return computeStats(&RawTable{Columns: columns, Rows: rows})
}

func TestAliasCandidatesPriorityOrder(t *testing.T) {
	stats := statsFor(
		[]string{"posted_date", "txn_date", "memo"},
		[][]string{{"2024-01-05", "2024-01-06", "x"}},
	)
	cands := rankTimestampColumns(stats)
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	// txn_date outranks posted_date in the alias table.
	if cands[0].Column != "txn_date" || cands[1].Column != "posted_date" {
		t.Fatalf("candidate order = [%s, %s]", cands[0].Column, cands[1].Column)
	}
	if cands[0].Score <= cands[1].Score {
		t.Fatalf("scores not descending: %v <= %v", cands[0].Score, cands[1].Score)
	}
}

func TestRankTimestampColumnsStatistical(t *testing.T) {
	stats := statsFor(
		[]string{"booking_time", "note"},
		[][]string{
			{"2024-01-05", "hello"},
			{"2024-01-06", "world"},
			{"2024-01-07", "again"},
		},
	)
	cands := rankTimestampColumns(stats)
	if len(cands) != 1 || cands[0].Column != "booking_time" {
		t.Fatalf("candidates = %+v, want booking_time only", cands)
	}
	// Statistical inferences always rank below alias matches.
	if cands[0].Score > 1.0 {
		t.Fatalf("inferred score = %v, want <= 1.0", cands[0].Score)
	}
}

func TestRankTimestampColumnsRequiresDateLikeName(t *testing.T) {
	stats := statsFor(
		[]string{"reference", "note"},
		[][]string{
			{"2024-01-05", "hello"},
			{"2024-01-06", "world"},
		},
	)
	if cands := rankTimestampColumns(stats); len(cands) != 0 {
		t.Fatalf("column without date-like name inferred as timestamp: %+v", cands)
	}
}

func TestRankCategoryAndMerchantByCardinality(t *testing.T) {
	stats := statsFor(
		[]string{"kind", "shop"},
		[][]string{
			{"food", "Acme Cafe"},
			{"food", "Blue Bottle"},
			{"travel", "AirGo"},
			{"food", "Corner Deli"},
		},
	)

	cats := rankCategoryColumns(stats, nil)
	if len(cats) == 0 || cats[0].Column != "kind" {
		t.Fatalf("category candidates = %+v, want kind first", cats)
	}

	merchants := rankMerchantColumns(stats, map[int]bool{cats[0].Index: true})
	if len(merchants) != 1 || merchants[0].Column != "shop" {
		t.Fatalf("merchant candidates = %+v, want shop only", merchants)
	}
}

func TestPlanAmountDirectAlias(t *testing.T) {
	stats := statsFor(
		[]string{"net_amount", "debit", "credit"},
		[][]string{{"10.00", "5.00", "15.00"}},
	)
	plan, _ := planAmount(stats)
	if plan.kind != "column" || plan.column != 0 {
		t.Fatalf("plan = %+v, want direct net_amount column", plan)
	}
}

func TestPlanAmountDebitCredit(t *testing.T) {
	stats := statsFor(
		[]string{"date", "debit", "credit"},
		[][]string{{"2024-01-05", "5.00", "15.00"}},
	)
	plan, _ := planAmount(stats)
	if plan.kind != "debitcredit" || plan.debit != 1 || plan.credit != 2 {
		t.Fatalf("plan = %+v, want debit/credit derivation", plan)
	}
}

func TestPlanAmountMaxVariance(t *testing.T) {
	stats := statsFor(
		[]string{"qty", "cost"},
		[][]string{
			{"1", "10.00"},
			{"2", "500.00"},
			{"1", "25.00"},
		},
	)
	plan, cands := planAmount(stats)
	if plan.kind != "column" || plan.column != 1 {
		t.Fatalf("plan = %+v, want max-variance cost column", plan)
	}
	if len(cands) != 2 || cands[0].Column != "cost" {
		t.Fatalf("candidates = %+v, want cost ranked first", cands)
	}
}

func TestPlanAmountDefault(t *testing.T) {
	stats := statsFor(
		[]string{"note", "tag"},
		[][]string{{"hello", "x"}},
	)
	plan, _ := planAmount(stats)
	if plan.kind != "default" {
		t.Fatalf("plan = %+v, want default", plan)
	}
}
