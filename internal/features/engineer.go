// Package features derives per-account behavioral features from a
// canonical transaction table.
package features

import (
	"math"
	"sort"

	"github.com/suyash1912/Kavach/internal/schema"
)

const (
	// rollingWindow is the trailing per-user window for amount stats.
	rollingWindow = 10
	// rollingMinObs is the minimum observations before rolling stats
	// are emitted.
	rollingMinObs = 3
	// velocityFloor is the lowest allowed velocity threshold. A quiet
	// dataset with a low 90th percentile never flags below this.
	velocityFloor = 5.0
	// zScoreEpsilon guards the z-score against zero deviation when a
	// user's recent amounts are constant.
	zScoreEpsilon = 1e-6
	// anomalyZThreshold marks a transaction statistically unusual.
	anomalyZThreshold = 3.0
)

// Transaction is a canonical transaction augmented with derived
// behavioral features.
type Transaction struct {
	schema.CanonicalTransaction

	UserCumulativeSpend  float64 `json:"user_cumulative_spend"`
	UserCategorySpend    float64 `json:"user_category_spend"`
	UserTxVelocityPerDay float64 `json:"user_tx_velocity_per_day"`
	VelocityFlag         bool    `json:"velocity_flag"`

	// Rolling stats over the user's own trailing window. Invalid until
	// the window holds rollingMinObs observations.
	RollingMeanAmount float64 `json:"rolling_mean_amount"`
	RollingStdAmount  float64 `json:"rolling_std_amount"`
	RollingValid      bool    `json:"rolling_valid"`

	ZScoreAmount    float64 `json:"zscore_amount"`
	IsAmountAnomaly bool    `json:"is_amount_anomaly"`
	CountryChanged  bool    `json:"country_changed"`

	RuleBasedFraudFlag bool `json:"rule_based_fraud_flag"`
}

// Options controls feature engineering behavior.
type Options struct {
	// FoldLabels folds each row's pre-existing label (extracted by the
	// normalizer on explicit request) into the rule-based flag.
	FoldLabels bool
}

// Engineer computes behavioral features over a canonical table. Rows
// with unparseable (zero) timestamps are dropped; everything else is
// computed over the table sorted by (user_id, timestamp) ascending,
// never upload order.
func Engineer(txs []schema.CanonicalTransaction, opts Options) []Transaction {
	rows := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Timestamp.IsZero() {
			continue
		}
		rows = append(rows, Transaction{CanonicalTransaction: tx})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].UserID != rows[j].UserID {
			return rows[i].UserID < rows[j].UserID
		}
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})

	computeCumulativeSpend(rows)
	computeVelocity(rows)
	computeRollingStats(rows)
	computeCountryChange(rows)

	for i := range rows {
		rows[i].RuleBasedFraudFlag = rows[i].IsAmountAnomaly || rows[i].CountryChanged
		if opts.FoldLabels && rows[i].LabelValid && rows[i].Label {
			rows[i].RuleBasedFraudFlag = true
		}
	}

	return rows
}

func computeCumulativeSpend(rows []Transaction) {
	userTotals := make(map[string]float64)
	categoryTotals := make(map[string]map[string]float64)

	for i := range rows {
		user := rows[i].UserID
		userTotals[user] += rows[i].Amount
		rows[i].UserCumulativeSpend = userTotals[user]

		if categoryTotals[user] == nil {
			categoryTotals[user] = make(map[string]float64)
		}
		categoryTotals[user][rows[i].Category] += rows[i].Amount
		rows[i].UserCategorySpend = categoryTotals[user][rows[i].Category]
	}
}

// computeVelocity counts transactions per user per calendar date and
// flags rows above max(velocityFloor, p90 of all per-row counts). The
// threshold is dataset-relative and recomputed on every run.
func computeVelocity(rows []Transaction) {
	type userDay struct {
		user string
		day  string
	}
	counts := make(map[userDay]int)
	for i := range rows {
		key := userDay{rows[i].UserID, rows[i].Timestamp.Format("2006-01-02")}
		counts[key]++
	}

	all := make([]float64, len(rows))
	for i := range rows {
		key := userDay{rows[i].UserID, rows[i].Timestamp.Format("2006-01-02")}
		rows[i].UserTxVelocityPerDay = float64(counts[key])
		all[i] = rows[i].UserTxVelocityPerDay
	}

	threshold := math.Max(velocityFloor, quantile(all, 0.9))
	for i := range rows {
		rows[i].VelocityFlag = rows[i].UserTxVelocityPerDay > threshold
	}
}

func computeRollingStats(rows []Transaction) {
	var window []float64
	for i := range rows {
		if i == 0 || rows[i].UserID != rows[i-1].UserID {
			window = window[:0]
		}
		window = append(window, rows[i].Amount)
		if len(window) > rollingWindow {
			window = window[1:]
		}
		if len(window) >= rollingMinObs {
			mean, std := meanStd(window)
			rows[i].RollingMeanAmount = mean
			rows[i].RollingStdAmount = std
			rows[i].RollingValid = true
		}

		if rows[i].RollingValid {
			rows[i].ZScoreAmount = (rows[i].Amount - rows[i].RollingMeanAmount) /
				(rows[i].RollingStdAmount + zScoreEpsilon)
			rows[i].IsAmountAnomaly = math.Abs(rows[i].ZScoreAmount) > anomalyZThreshold
		}
	}
}

func computeCountryChange(rows []Transaction) {
	for i := 1; i < len(rows); i++ {
		if rows[i].UserID != rows[i-1].UserID {
			continue
		}
		prev := rows[i-1].Country
		rows[i].CountryChanged = prev != "" && prev != rows[i].Country
	}
}

// meanStd returns the mean and sample standard deviation of values.
func meanStd(values []float64) (float64, float64) {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	if len(values) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / (n - 1))
}

// quantile computes the q-th quantile with linear interpolation
// between closest ranks, matching the convention used when the
// velocity threshold was originally tuned.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
