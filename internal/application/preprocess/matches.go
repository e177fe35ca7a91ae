// Package preprocess derives the per-pollutant dashboard fixtures from the
// generic BREF hierarchy and the section × pollutant label table: flagged
// hierarchies, the matchingPollutants annotation of the flat map and the
// pollutant → section lookup.
package preprocess

import (
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// Columns of the label table.
const (
	ColumnCode      = "code"
	ColumnPollutant = "pollutant"
	ColumnLabel     = "label"
)

// Matches holds the sections labelled as matching each pollutant.
// Pollutants keep the order of their first row.
type Matches struct {
	order  []string
	codes  map[string]map[string]struct{}
	counts map[string]int
	rows   int
}

// PollutantCount pairs a pollutant with its number of matching rows.
type PollutantCount struct {
	Pollutant string
	Count     int
}

func newMatches() *Matches {
	return &Matches{codes: make(map[string]map[string]struct{}), counts: make(map[string]int)}
}

// ReadMatches parses a CSV with code, pollutant and label columns.  A row
// matches when its label equals 1.  Pollutants with no matching row are
// still recorded.
func ReadMatches(r io.Reader) (*Matches, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDecodeFailed, "read label table header")
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range []string{ColumnCode, ColumnPollutant, ColumnLabel} {
		if _, ok := idx[col]; !ok {
			return nil, apperrors.New(apperrors.ErrCodeDecodeFailed, "label table is missing a column").WithDetail(col)
		}
	}

	m := newMatches()
	line := 1
	for {
		rec, err := cr.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDecodeFailed, "read label table").WithDetail("line " + strconv.Itoa(line))
		}
		code, pollutant, label := field(rec, idx[ColumnCode]), field(rec, idx[ColumnPollutant]), field(rec, idx[ColumnLabel])
		if code == "" && pollutant == "" {
			continue
		}
		matched, err := parseLabel(label)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeValidation, "label is not a number").
				WithDetail("line " + strconv.Itoa(line) + ": " + label)
		}
		m.add(code, pollutant, matched)
	}
	return m, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parseLabel accepts integer and float renderings such as "1" and "1.0".
func parseLabel(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, err
	}
	return int(f) == 1, nil
}

func (m *Matches) add(code, pollutant string, matched bool) {
	m.rows++
	set, ok := m.codes[pollutant]
	if !ok {
		set = make(map[string]struct{})
		m.codes[pollutant] = set
		m.order = append(m.order, pollutant)
	}
	if matched {
		set[code] = struct{}{}
		m.counts[pollutant]++
	}
}

// Rows returns the number of data rows read.
func (m *Matches) Rows() int { return m.rows }

// Pollutants returns every pollutant in first-seen order.
func (m *Matches) Pollutants() []string {
	return append([]string(nil), m.order...)
}

// Has reports whether code matches pollutant.
func (m *Matches) Has(pollutant, code string) bool {
	_, ok := m.codes[pollutant][code]
	return ok
}

// Codes returns the matching section codes of pollutant, sorted.
func (m *Matches) Codes(pollutant string) []string {
	out := make([]string, 0, len(m.codes[pollutant]))
	for c := range m.codes[pollutant] {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of matching rows of pollutant.
func (m *Matches) Count(pollutant string) int { return m.counts[pollutant] }

// Top returns the n pollutants with the most matching rows.  Ties keep
// first-seen order.
func (m *Matches) Top(n int) []PollutantCount {
	out := make([]PollutantCount, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, PollutantCount{Pollutant: p, Count: m.counts[p]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// PollutantsFor returns the pollutants matching code in first-seen order.
func (m *Matches) PollutantsFor(code string) []string {
	var out []string
	for _, p := range m.order {
		if m.Has(p, code) {
			out = append(out, p)
		}
	}
	return out
}

//Personal.AI order the ending
