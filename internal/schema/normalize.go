package schema

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Normalize parses a raw tabular file and infers the canonical
// transaction schema. It is a pure function of the input bytes: every
// plausible interpretation of the file is scored, the best one wins,
// and unresolvable fields degrade to defaults rather than failing.
func Normalize(data []byte, filename string) ([]CanonicalTransaction, error) {
	return NormalizeWithOptions(data, filename, Options{})
}

// NormalizeWithOptions is Normalize with explicit label extraction.
func NormalizeWithOptions(data []byte, filename string, opts Options) ([]CanonicalTransaction, error) {
	candidates := parseCandidates(data, filename)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("normalize %q: %w", filename, ErrUnparsableFile)
	}

	best := selectCandidate(candidates)
	trimmed := trimTable(best)
	if trimmed.NumRows() == 0 || len(trimmed.Columns) == 0 {
		return nil, fmt.Errorf("normalize %q: %w", filename, ErrEmptyDataset)
	}

	normalizeColumnNames(trimmed)
	return buildRows(trimmed, opts)
}

// selectCandidate scores all interpretations and returns the best,
// first-encountered order breaking ties. Scoring is the only hot loop
// in the normalizer, so candidates are scored in parallel.
func selectCandidate(candidates []RawTable) *RawTable {
	scores := make([]float64, len(candidates))

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range candidates {
		g.Go(func() error {
			scores[i] = scoreCandidate(&candidates[i])
			return nil
		})
	}
	_ = g.Wait() // scoring never errors

	bestIdx := 0
	for i, s := range scores {
		if s > scores[bestIdx] {
			bestIdx = i
		}
	}
	return &candidates[bestIdx]
}

// trimTable drops fully-null columns and fully-null rows.
func trimTable(t *RawTable) *RawTable {
	keepCols := make([]int, 0, len(t.Columns))
	for col := range t.Columns {
		for row := range t.Rows {
			if t.Cell(row, col) != "" {
				keepCols = append(keepCols, col)
				break
			}
		}
	}

	out := &RawTable{Source: t.Source, Columns: make([]string, len(keepCols))}
	for i, col := range keepCols {
		out.Columns[i] = t.Columns[col]
	}
	for row := range t.Rows {
		empty := true
		cells := make([]string, len(keepCols))
		for i, col := range keepCols {
			cells[i] = t.Cell(row, col)
			if cells[i] != "" {
				empty = false
			}
		}
		if !empty {
			out.Rows = append(out.Rows, cells)
		}
	}
	return out
}

// normalizeColumnNames lower-cases and trims every column name and
// de-duplicates repeats with a numeric suffix.
func normalizeColumnNames(t *RawTable) {
	seen := make(map[string]int, len(t.Columns))
	for i, name := range t.Columns {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			name = "column"
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		if _, ok := seen[name]; !ok {
			seen[name] = 0
		}
		t.Columns[i] = name
	}
}

func buildRows(t *RawTable, opts Options) ([]CanonicalTransaction, error) {
	if t.NumRows() == 0 {
		return nil, ErrMissingRequiredSignal
	}

	stats := computeStats(t)

	tsIdx := -1
	if cands := rankTimestampColumns(stats); len(cands) > 0 {
		tsIdx = cands[0].Index
	}

	amount, _ := planAmount(stats)

	exclude := map[int]bool{}
	if tsIdx >= 0 {
		exclude[tsIdx] = true
	}
	catIdx := -1
	if cands := rankCategoryColumns(stats, exclude); len(cands) > 0 {
		catIdx = cands[0].Index
	}
	if catIdx >= 0 {
		exclude[catIdx] = true
	}
	merchIdx := -1
	if cands := rankMerchantColumns(stats, exclude); len(cands) > 0 {
		merchIdx = cands[0].Index
	}
	countryIdx := -1
	if cands := rankCountryColumns(stats); len(cands) > 0 {
		countryIdx = cands[0].Index
	}
	userIdx := -1
	if cands := rankUserColumns(stats); len(cands) > 0 {
		userIdx = cands[0].Index
	}
	labelIdx := -1
	if opts.LabelColumn != "" {
		labelIdx = findColumn(stats, strings.ToLower(strings.TrimSpace(opts.LabelColumn)))
	}

	// Synthetic timestamps keep downstream time ordering alive when no
	// real timestamp column exists: one day apart, starting now.
	syntheticStart := time.Now().UTC().Truncate(time.Second)

	rows := make([]CanonicalTransaction, t.NumRows())
	for i := range t.Rows {
		tx := CanonicalTransaction{
			UserID:   DefaultUserID,
			Category: DefaultCategory,
			Merchant: DefaultMerchant,
			Country:  DefaultCountry,
		}

		if tsIdx >= 0 {
			tx.Timestamp, _ = ParseTimestamp(t.Cell(i, tsIdx))
		} else {
			tx.Timestamp = syntheticStart.AddDate(0, 0, i)
		}

		tx.Amount = resolveAmountCell(t, i, amount)

		if catIdx >= 0 {
			if v := t.Cell(i, catIdx); v != "" {
				tx.Category = v
			}
		}
		if merchIdx >= 0 {
			if v := t.Cell(i, merchIdx); v != "" {
				tx.Merchant = v
			}
		}
		if countryIdx >= 0 {
			if v := t.Cell(i, countryIdx); v != "" {
				tx.Country = v
			}
		}
		if userIdx >= 0 {
			if v := t.Cell(i, userIdx); v != "" {
				tx.UserID = v
			}
		}
		if labelIdx >= 0 {
			if v := t.Cell(i, labelIdx); v != "" {
				tx.Label = coerceBool(v)
				tx.LabelValid = true
			}
		}

		rows[i] = tx
	}
	return rows, nil
}

func resolveAmountCell(t *RawTable, row int, plan amountPlan) float64 {
	switch plan.kind {
	case "column":
		v, _ := ParseAmount(t.Cell(row, plan.column))
		return v
	case "debitcredit":
		debit, _ := ParseAmount(t.Cell(row, plan.debit))
		credit, _ := ParseAmount(t.Cell(row, plan.credit))
		return credit - debit
	case "debit":
		v, _ := ParseAmount(t.Cell(row, plan.column))
		return -v
	case "credit":
		v, _ := ParseAmount(t.Cell(row, plan.column))
		return v
	default:
		return 0.0
	}
}

func coerceBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "y", "t":
		return true
	case "false", "no", "n", "f", "":
		return false
	}
	if f, ok := ParseAmount(v); ok {
		return f != 0
	}
	return false
}
