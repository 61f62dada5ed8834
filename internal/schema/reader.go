package schema

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// maxHeaderOffset bounds how deep the reader looks for a header row.
// Banner rows and merged headers in real exports rarely go deeper.
const maxHeaderOffset = 5

var csvDelimiters = []rune{',', ';', '\t', '|'}

// parseCandidates produces every plausible interpretation of the file:
// for spreadsheets, every sheet under every header offset; for
// delimited text, every detected delimiter under every header offset.
func parseCandidates(data []byte, filename string) []RawTable {
	if looksLikeWorkbook(data, filename) {
		if candidates := parseWorkbookCandidates(data); len(candidates) > 0 {
			return candidates
		}
	}
	return parseDelimitedCandidates(data)
}

func looksLikeWorkbook(data []byte, filename string) bool {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") || strings.HasSuffix(lower, ".xls") {
		return true
	}
	// xlsx files are zip archives
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func parseWorkbookCandidates(data []byte) []RawTable {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	defer f.Close()

	var candidates []RawTable
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		for offset := 0; offset <= maxHeaderOffset && offset < len(rows)-1; offset++ {
			source := fmt.Sprintf("sheet:%s offset:%d", sheet, offset)
			if t := buildCandidate(source, rows, offset); t != nil {
				candidates = append(candidates, *t)
			}
		}
	}
	return candidates
}

func parseDelimitedCandidates(data []byte) []RawTable {
	data = stripUTF8BOM(data)
	if !utf8.Valid(data) {
		data = decodeLatin1(data)
	}

	var candidates []RawTable
	for _, delim := range csvDelimiters {
		records := readDelimited(data, delim)
		if len(records) < 2 {
			continue
		}
		for offset := 0; offset <= maxHeaderOffset && offset < len(records)-1; offset++ {
			source := fmt.Sprintf("csv delim:%q offset:%d", delim, offset)
			if t := buildCandidate(source, records, offset); t != nil {
				candidates = append(candidates, *t)
			}
		}
	}
	return candidates
}

func readDelimited(data []byte, delim rune) [][]string {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var records [][]string
	sawDelim := false
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed lines degrade to being skipped; they never
			// fail the whole candidate.
			continue
		}
		if len(record) > 1 {
			sawDelim = true
		}
		records = append(records, record)
	}
	if !sawDelim {
		return nil
	}
	return records
}

// buildCandidate interprets rows[offset] as the header and everything
// below it as data, padding ragged rows to the table width.
func buildCandidate(source string, rows [][]string, offset int) *RawTable {
	header := rows[offset]
	body := rows[offset+1:]

	width := len(header)
	for _, row := range body {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return nil
	}

	columns := make([]string, width)
	for i := range columns {
		if i < len(header) {
			columns[i] = strings.TrimSpace(header[i])
		}
	}

	padded := make([][]string, len(body))
	for i, row := range body {
		cells := make([]string, width)
		for j := 0; j < width && j < len(row); j++ {
			cells[j] = strings.TrimSpace(row[j])
		}
		padded[i] = cells
	}

	return &RawTable{Source: source, Columns: columns, Rows: padded}
}

// scoreCandidate rates one interpretation: non-null cell count plus a
// strong bonus for columns that read as numbers and a weaker one for
// columns that read as dates. Tables parsed at the wrong header offset
// lose rows and typed columns, so the true layout wins.
func scoreCandidate(t *RawTable) float64 {
	nonNull := 0
	numericCols := 0
	dateCols := 0

	for col := range t.Columns {
		colNonNull := 0
		numericOK := 0
		dateOK := 0
		for row := range t.Rows {
			v := t.Cell(row, col)
			if v == "" {
				continue
			}
			colNonNull++
			if _, ok := ParseAmount(v); ok {
				numericOK++
			}
			if _, ok := ParseTimestamp(v); ok {
				dateOK++
			}
		}
		nonNull += colNonNull
		if colNonNull > 0 && float64(numericOK)/float64(colNonNull) > 0.6 {
			numericCols++
		}
		if colNonNull > 0 && float64(dateOK)/float64(colNonNull) > 0.5 {
			dateCols++
		}
	}

	return float64(nonNull) + 50*float64(numericCols) + 25*float64(dateCols)
}

func stripUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func decodeLatin1(data []byte) []byte {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}
