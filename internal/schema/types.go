// Package schema turns arbitrary tabular exports into the canonical
// six-field transaction shape the rest of the pipeline assumes.
package schema

import (
	"errors"
	"time"
)

// Canonical field defaults, substituted when a field cannot be
// recovered from the source file.
const (
	DefaultUserID   = "user-1"
	DefaultCountry  = "Unknown"
	DefaultMerchant = "Unknown"
	DefaultCategory = "Uncategorized"
)

var (
	// ErrUnparsableFile means no candidate interpretation of the file
	// could be parsed at all.
	ErrUnparsableFile = errors.New("schema: file is unreadable by any supported parser")

	// ErrEmptyDataset means the best candidate table is empty after
	// dropping fully-null rows and columns.
	ErrEmptyDataset = errors.New("schema: dataset is empty after trimming")

	// ErrMissingRequiredSignal means default substitution itself was
	// impossible, e.g. a table with no data rows at all.
	ErrMissingRequiredSignal = errors.New("schema: no recoverable signal in dataset")
)

// CanonicalTransaction is one normalized transaction row. Every field
// is populated; defaults are substituted when the source column is
// unrecoverable. A zero Timestamp marks a row whose timestamp cell
// could not be parsed (the feature engineer drops those).
type CanonicalTransaction struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Merchant  string    `json:"merchant"`
	Country   string    `json:"country"`

	// Label carries a pre-existing fraud/risk label when the caller
	// explicitly opted in via Options.LabelColumn. LabelValid reports
	// whether the value was present in the source.
	Label      bool `json:"-"`
	LabelValid bool `json:"-"`
}

// Options controls optional normalizer behavior.
type Options struct {
	// LabelColumn names a source column to coerce into a boolean risk
	// label on each row. Empty disables label extraction; there is no
	// silent auto-detection.
	LabelColumn string
}

// RawTable is one untyped candidate interpretation of the source file:
// named columns over string cells, types unknown and untrusted.
type RawTable struct {
	// Source identifies where the candidate came from, e.g.
	// "sheet:Transactions offset:1" or "csv offset:0".
	Source  string
	Columns []string
	Rows    [][]string
}

// NumRows returns the number of data rows.
func (t *RawTable) NumRows() int { return len(t.Rows) }

// Cell returns the trimmed cell at (row, col), or "" when out of range.
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}
