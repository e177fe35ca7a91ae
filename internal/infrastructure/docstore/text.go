package docstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// CodeColumn is the column the text table is keyed by.
const CodeColumn = "code"

// TextRow is one CSV record keyed by header name.
type TextRow map[string]string

// Text returns the first non-empty body column of the row.
func (r TextRow) Text() string {
	for _, col := range []string{"text", "content", "body"} {
		if v := strings.TrimSpace(r[col]); v != "" {
			return v
		}
	}
	return ""
}

// TextTable indexes BREF section rows by code.  The first row of a
// duplicated code wins.
type TextTable struct {
	columns []string
	rows    map[string]TextRow
}

func emptyTextTable() *TextTable {
	return &TextTable{rows: map[string]TextRow{}}
}

// ParseTextTable reads a CSV with a header row containing CodeColumn.
// Rows with an empty code are skipped.
func ParseTextTable(data []byte) (*TextTable, error) {
	t := emptyTextTable()
	if len(bytes.TrimSpace(data)) == 0 {
		return t, nil
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return emptyTextTable(), apperrors.Wrap(err, apperrors.ErrCodeDecodeFailed, "read text table header")
	}
	codeAt := -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[i] = h
		if h == CodeColumn {
			codeAt = i
		}
	}
	if codeAt < 0 {
		return emptyTextTable(), apperrors.New(apperrors.ErrCodeDecodeFailed, "text table has no code column")
	}
	t.columns = header

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return emptyTextTable(), apperrors.Wrap(err, apperrors.ErrCodeDecodeFailed, "read text table row")
		}
		if codeAt >= len(rec) {
			continue
		}
		code := strings.TrimSpace(rec[codeAt])
		if code == "" {
			continue
		}
		if _, dup := t.rows[code]; dup {
			continue
		}
		row := make(TextRow, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		t.rows[code] = row
	}
	return t, nil
}

// Lookup returns the row for code.
func (t *TextTable) Lookup(code string) (TextRow, bool) {
	r, ok := t.rows[code]
	return r, ok
}

// Columns returns the header names.
func (t *TextTable) Columns() []string {
	return t.columns
}

// Len returns the number of indexed rows.
func (t *TextTable) Len() int {
	return len(t.rows)
}

//Personal.AI order the ending
