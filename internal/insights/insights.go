// Package insights reduces a scored transaction table to the
// aggregates the dashboard and the analyst advisor consume.
package insights

import (
	"fmt"
	"math"
	"sort"

	"github.com/suyash1912/Kavach/internal/scoring"
)

// fraudScoreCutoff pulls unflagged but suspicious rows into the fraud
// table.
const fraudScoreCutoff = 0.5

// Insights is the compact dataset summary.
type Insights struct {
	TotalSpend    float64         `json:"total_spend"`
	TopCategories []CategoryTotal `json:"top_categories"`
	MonthlyTrends []MonthlyTotal  `json:"monthly_trends"`
	UserSummaries []UserSummary   `json:"user_summaries"`
}

type CategoryTotal struct {
	Category   string  `json:"category"`
	TotalSpend float64 `json:"total_spend"`
}

type MonthlyTotal struct {
	Month      string  `json:"month"`
	TotalSpend float64 `json:"total_spend"`
}

type UserSummary struct {
	UserID         string  `json:"user_id"`
	TotalSpend     float64 `json:"total_spend"`
	AvgTransaction float64 `json:"avg_transaction"`
	TxCount        int     `json:"tx_count"`
}

// FraudCase is one row of the lean flagged-transaction table.
type FraudCase struct {
	ID                 int     `json:"id"`
	UserID             string  `json:"user_id"`
	Timestamp          string  `json:"timestamp"`
	Amount             float64 `json:"amount"`
	Category           string  `json:"category"`
	Merchant           string  `json:"merchant"`
	Country            string  `json:"country"`
	FraudScore         float64 `json:"fraud_score"`
	RuleBasedFraudFlag bool    `json:"rule_based_fraud_flag"`
	ModelFraudFlag     bool    `json:"model_fraud_flag"`
	VelocityFlag       bool    `json:"velocity_flag"`
}

// RiskCluster is a human-readable grouping of elevated risk, used for
// dashboard summarization only.
type RiskCluster struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Aggregate reduces a scored table to its summary, its flagged rows
// and its risk clusters. Empty input yields empty output, never an
// error.
func Aggregate(txs []scoring.Transaction) (Insights, []FraudCase, []RiskCluster) {
	return computeInsights(txs), buildFraudTable(txs), buildRiskClusters(txs)
}

func computeInsights(txs []scoring.Transaction) Insights {
	out := Insights{
		TopCategories: []CategoryTotal{},
		MonthlyTrends: []MonthlyTotal{},
		UserSummaries: []UserSummary{},
	}
	if len(txs) == 0 {
		return out
	}

	byCategory := make(map[string]float64)
	byMonth := make(map[string]float64)
	spendByUser := make(map[string]float64)
	countByUser := make(map[string]int)

	for i := range txs {
		tx := &txs[i]
		out.TotalSpend += tx.Amount
		byCategory[tx.Category] += tx.Amount
		byMonth[tx.Timestamp.Format("2006-01")] += tx.Amount
		spendByUser[tx.UserID] += tx.Amount
		countByUser[tx.UserID]++
	}

	for cat, total := range byCategory {
		out.TopCategories = append(out.TopCategories, CategoryTotal{Category: cat, TotalSpend: total})
	}
	sort.Slice(out.TopCategories, func(i, j int) bool {
		a, b := out.TopCategories[i], out.TopCategories[j]
		if a.TotalSpend != b.TotalSpend {
			return a.TotalSpend > b.TotalSpend
		}
		return a.Category < b.Category
	})

	for month, total := range byMonth {
		out.MonthlyTrends = append(out.MonthlyTrends, MonthlyTotal{Month: month, TotalSpend: total})
	}
	sort.Slice(out.MonthlyTrends, func(i, j int) bool {
		return out.MonthlyTrends[i].Month < out.MonthlyTrends[j].Month
	})

	for user, total := range spendByUser {
		n := countByUser[user]
		out.UserSummaries = append(out.UserSummaries, UserSummary{
			UserID:         user,
			TotalSpend:     total,
			AvgTransaction: total / float64(n),
			TxCount:        n,
		})
	}
	sort.Slice(out.UserSummaries, func(i, j int) bool {
		return out.UserSummaries[i].UserID < out.UserSummaries[j].UserID
	})

	return out
}

// buildFraudTable filters to flagged or suspicious rows, highest risk
// first. IDs are row indexes into the scored table so the dashboard
// can link back.
func buildFraudTable(txs []scoring.Transaction) []FraudCase {
	out := []FraudCase{}
	for i := range txs {
		tx := &txs[i]
		if !tx.RuleBasedFraudFlag && !tx.ModelFraudFlag && tx.FraudScore <= fraudScoreCutoff {
			continue
		}
		out = append(out, FraudCase{
			ID:                 i,
			UserID:             tx.UserID,
			Timestamp:          tx.Timestamp.Format("2006-01-02T15:04:05"),
			Amount:             tx.Amount,
			Category:           tx.Category,
			Merchant:           tx.Merchant,
			Country:            tx.Country,
			FraudScore:         tx.FraudScore,
			RuleBasedFraudFlag: tx.RuleBasedFraudFlag,
			ModelFraudFlag:     tx.ModelFraudFlag,
			VelocityFlag:       tx.VelocityFlag,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FraudScore > out[j].FraudScore
	})
	return out
}

// buildRiskClusters groups normalized risk by category and country and
// raw velocity by user, then keeps the five strongest signals.
func buildRiskClusters(txs []scoring.Transaction) []RiskCluster {
	if len(txs) == 0 {
		return []RiskCluster{}
	}

	scoreMax := 1e-6
	for i := range txs {
		if txs[i].FraudScore > scoreMax {
			scoreMax = txs[i].FraudScore
		}
	}

	riskByCategory := newGroupedMean()
	riskByCountry := newGroupedMean()
	velocityByUser := newGroupedMean()
	for i := range txs {
		tx := &txs[i]
		norm := clamp01(tx.FraudScore / scoreMax)
		riskByCategory.add(tx.Category, norm)
		riskByCountry.add(tx.Country, norm)
		velocityByUser.add(tx.UserID, tx.UserTxVelocityPerDay)
	}

	var clusters []RiskCluster
	for _, e := range riskByCategory.top(3) {
		clusters = append(clusters, RiskCluster{Name: fmt.Sprintf("Category spike: %s", e.key), Score: e.mean})
	}
	for _, e := range riskByCountry.top(2) {
		clusters = append(clusters, RiskCluster{Name: fmt.Sprintf("Geo hotspot: %s", e.key), Score: e.mean})
	}

	topVelocity := velocityByUser.top(2)
	velocityMax := 1.0
	for _, e := range topVelocity {
		velocityMax = math.Max(velocityMax, e.mean)
	}
	for _, e := range topVelocity {
		clusters = append(clusters, RiskCluster{
			Name:  fmt.Sprintf("Velocity burst: %s", e.key),
			Score: math.Min(e.mean/velocityMax, 1.0),
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].Score != clusters[j].Score {
			return clusters[i].Score > clusters[j].Score
		}
		return clusters[i].Name < clusters[j].Name
	})
	if len(clusters) > 5 {
		clusters = clusters[:5]
	}
	return clusters
}

type groupedMean struct {
	sums   map[string]float64
	counts map[string]int
}

func newGroupedMean() *groupedMean {
	return &groupedMean{sums: make(map[string]float64), counts: make(map[string]int)}
}

func (g *groupedMean) add(key string, v float64) {
	g.sums[key] += v
	g.counts[key]++
}

type groupEntry struct {
	key  string
	mean float64
}

// top returns the n groups with the highest mean, name breaking ties
// so cluster output is deterministic.
func (g *groupedMean) top(n int) []groupEntry {
	entries := make([]groupEntry, 0, len(g.sums))
	for key, sum := range g.sums {
		entries = append(entries, groupEntry{key: key, mean: sum / float64(g.counts[key])})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].mean != entries[j].mean {
			return entries[i].mean > entries[j].mean
		}
		return entries[i].key < entries[j].key
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
