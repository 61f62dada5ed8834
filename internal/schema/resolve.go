package schema

import (
	"sort"
	"strings"
)

// fieldAliases maps each canonical field to its known source-column
// names, in priority order. Matching is exact against the normalized
// (trimmed, lower-cased) column name.
var fieldAliases = map[string][]string{
	"timestamp": {"timestamp", "date", "time", "txn_date", "transaction_date", "posted_date"},
	"amount":    {"amount", "value", "amt", "transaction_amount", "debit", "credit", "net_amount"},
	"category":  {"category", "type", "expense_type", "revenue_type", "particulars", "description"},
	"merchant":  {"merchant", "vendor", "payee", "supplier", "counterparty", "party", "beneficiary"},
	"country":   {"country", "nation", "region", "geo", "country_code", "location"},
	"user_id":   {"user_id", "user", "customer", "client", "account", "account_id", "member", "subscriber"},
}

// directAmountAliases are amount aliases that name a single signed
// column. debit/credit are handled by the derivation step instead.
var directAmountAliases = []string{"amount", "value", "amt", "transaction_amount", "net_amount"}

// ColumnCandidate is one scored candidate column for a canonical
// field. Alias matches score in [1, 2]; statistical inferences score
// in (0, 1), so alias resolution always outranks inference.
type ColumnCandidate struct {
	Column string
	Index  int
	Score  float64
}

// columnStats summarizes one source column for field resolution.
type columnStats struct {
	index     int
	name      string
	nonNull   int
	numericOK int
	dateOK    int
	distinct  int
	variance  float64
}

func (c *columnStats) numericFraction() float64 {
	if c.nonNull == 0 {
		return 0
	}
	return float64(c.numericOK) / float64(c.nonNull)
}

func (c *columnStats) dateFraction() float64 {
	if c.nonNull == 0 {
		return 0
	}
	return float64(c.dateOK) / float64(c.nonNull)
}

func (c *columnStats) isNumeric() bool { return c.nonNull > 0 && c.numericFraction() > 0.6 }

func (c *columnStats) isText() bool { return c.nonNull > 0 && !c.isNumeric() }

func computeStats(t *RawTable) []columnStats {
	stats := make([]columnStats, len(t.Columns))
	for col, name := range t.Columns {
		s := columnStats{index: col, name: name}
		seen := make(map[string]struct{})
		var sum, sumSq float64
		for row := range t.Rows {
			v := t.Cell(row, col)
			if v == "" {
				continue
			}
			s.nonNull++
			seen[v] = struct{}{}
			if f, ok := ParseAmount(v); ok {
				s.numericOK++
				sum += f
				sumSq += f * f
			}
			if _, ok := ParseTimestamp(v); ok {
				s.dateOK++
			}
		}
		s.distinct = len(seen)
		if s.numericOK > 1 {
			n := float64(s.numericOK)
			mean := sum / n
			// sample variance
			s.variance = (sumSq - n*mean*mean) / (n - 1)
			if s.variance < 0 {
				s.variance = 0
			}
		}
		stats[col] = s
	}
	return stats
}

// aliasCandidates returns alias matches for a field, highest-priority
// alias first.
func aliasCandidates(field string, stats []columnStats, aliases []string) []ColumnCandidate {
	if aliases == nil {
		aliases = fieldAliases[field]
	}
	var out []ColumnCandidate
	for rank, alias := range aliases {
		for _, s := range stats {
			if s.name == alias {
				out = append(out, ColumnCandidate{
					Column: s.name,
					Index:  s.index,
					Score:  2.0 - float64(rank)*0.01,
				})
			}
		}
	}
	return out
}

// rankTimestampColumns ranks candidates for the timestamp field:
// alias matches first, then columns whose name mentions a date-like
// word and whose values parse as dates more than 60% of the time.
func rankTimestampColumns(stats []columnStats) []ColumnCandidate {
	out := aliasCandidates("timestamp", stats, nil)
	matched := candidateIndexSet(out)
	var inferred []ColumnCandidate
	for _, s := range stats {
		if matched[s.index] {
			continue
		}
		if !nameSuggestsDate(s.name) {
			continue
		}
		if frac := s.dateFraction(); frac > 0.6 {
			inferred = append(inferred, ColumnCandidate{Column: s.name, Index: s.index, Score: frac})
		}
	}
	sortCandidates(inferred)
	return append(out, inferred...)
}

func nameSuggestsDate(name string) bool {
	return strings.Contains(name, "date") ||
		strings.Contains(name, "time") ||
		strings.Contains(name, "month") ||
		strings.Contains(name, "period")
}

// rankCategoryColumns prefers the alias table, then the text column
// with the fewest distinct values (low cardinality reads like a
// label), excluding any indexes the caller has already claimed.
func rankCategoryColumns(stats []columnStats, exclude map[int]bool) []ColumnCandidate {
	out := aliasCandidates("category", stats, nil)
	matched := candidateIndexSet(out)
	maxDistinct := 1
	for _, s := range stats {
		if s.distinct > maxDistinct {
			maxDistinct = s.distinct
		}
	}
	var inferred []ColumnCandidate
	for _, s := range stats {
		if matched[s.index] || exclude[s.index] || !s.isText() || s.distinct == 0 {
			continue
		}
		score := 1.0 - float64(s.distinct)/float64(maxDistinct+1)
		inferred = append(inferred, ColumnCandidate{Column: s.name, Index: s.index, Score: score})
	}
	sortCandidates(inferred)
	return append(out, inferred...)
}

// rankMerchantColumns prefers the alias table, then the text column
// with the most distinct values (high cardinality reads like an
// identifier), excluding the category column.
func rankMerchantColumns(stats []columnStats, exclude map[int]bool) []ColumnCandidate {
	out := aliasCandidates("merchant", stats, nil)
	matched := candidateIndexSet(out)
	maxDistinct := 1
	for _, s := range stats {
		if s.distinct > maxDistinct {
			maxDistinct = s.distinct
		}
	}
	var inferred []ColumnCandidate
	for _, s := range stats {
		if matched[s.index] || exclude[s.index] || !s.isText() || s.distinct == 0 {
			continue
		}
		score := float64(s.distinct) / float64(maxDistinct+1)
		inferred = append(inferred, ColumnCandidate{Column: s.name, Index: s.index, Score: score})
	}
	sortCandidates(inferred)
	return append(out, inferred...)
}

// rankCountryColumns and rankUserColumns resolve by alias only; there
// is no reliable statistical signature for either field.
func rankCountryColumns(stats []columnStats) []ColumnCandidate {
	return aliasCandidates("country", stats, nil)
}

func rankUserColumns(stats []columnStats) []ColumnCandidate {
	return aliasCandidates("user_id", stats, nil)
}

// amountPlan describes how the amount field will be produced.
type amountPlan struct {
	kind   string // "column", "debitcredit", "debit", "credit", "default"
	column int
	debit  int
	credit int
}

// planAmount resolves the amount field in a fixed priority order:
// direct alias, credit−debit derivation, then the numeric column with
// the highest variance. The returned candidates expose the ranked
// statistical view for the chosen tier.
func planAmount(stats []columnStats) (amountPlan, []ColumnCandidate) {
	direct := aliasCandidates("amount", stats, directAmountAliases)
	if len(direct) > 0 {
		return amountPlan{kind: "column", column: direct[0].Index}, direct
	}

	debit := findColumn(stats, "debit")
	credit := findColumn(stats, "credit")
	switch {
	case debit >= 0 && credit >= 0:
		return amountPlan{kind: "debitcredit", debit: debit, credit: credit}, nil
	case debit >= 0:
		return amountPlan{kind: "debit", column: debit}, nil
	case credit >= 0:
		return amountPlan{kind: "credit", column: credit}, nil
	}

	var maxVar float64
	for _, s := range stats {
		if s.isNumeric() && s.variance > maxVar {
			maxVar = s.variance
		}
	}
	var inferred []ColumnCandidate
	for _, s := range stats {
		if !s.isNumeric() {
			continue
		}
		score := 0.5
		if maxVar > 0 {
			score = s.variance / (maxVar * 2)
		}
		inferred = append(inferred, ColumnCandidate{Column: s.name, Index: s.index, Score: score})
	}
	sortCandidates(inferred)
	if len(inferred) > 0 {
		return amountPlan{kind: "column", column: inferred[0].Index}, inferred
	}
	return amountPlan{kind: "default"}, nil
}

func findColumn(stats []columnStats, name string) int {
	for _, s := range stats {
		if s.name == name {
			return s.index
		}
	}
	return -1
}

func candidateIndexSet(cands []ColumnCandidate) map[int]bool {
	set := make(map[int]bool, len(cands))
	for _, c := range cands {
		set[c.Index] = true
	}
	return set
}

func sortCandidates(cands []ColumnCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
}
