// Package patent holds the patent records served alongside the BREF
// hierarchy and the ranking rule that selects the patents shown for a
// pollutant or a BREF section.
package patent

import (
	"github.com/tidwall/gjson"

	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Patent
// ─────────────────────────────────────────────────────────────────────────────

// Patent is one patent as seen by the dashboard.
type Patent struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Year     int    `json:"year,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	Text     string `json:"text,omitempty"`

	// Score is the base relevance of the patent to the pollutant.
	Score float64 `json:"score"`

	// RelevanceScore is the score the ranking used: Score without a BREF
	// selection, the section score otherwise.
	RelevanceScore float64 `json:"relevanceScore"`

	// BrefRelevance optionally carries per-section scores inline.
	BrefRelevance map[string]float64 `json:"brefRelevance,omitempty"`

	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// Summary returns the abstract, falling back to the full text.
func (p Patent) Summary() string {
	if p.Abstract != "" {
		return p.Abstract
	}
	return p.Text
}

// InlineScore returns the inline section score for nodeID.
func (p Patent) InlineScore(nodeID string) (float64, bool) {
	s, ok := p.BrefRelevance[nodeID]
	return s, ok
}

// ─────────────────────────────────────────────────────────────────────────────
// Decoding
// ─────────────────────────────────────────────────────────────────────────────

var (
	idKeys       = []string{"id", "patent_id", "patentId"}
	abstractKeys = []string{"abstract", "summary"}
	inlineKeys   = []string{"bref_relevance", "brefRelevance"}
)

func firstString(v gjson.Result, keys []string) string {
	for _, k := range keys {
		if r := v.Get(k); r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

func decodePatent(v gjson.Result, id string) Patent {
	p := Patent{
		ID:       id,
		Title:    v.Get("title").String(),
		Year:     int(v.Get("year").Int()),
		Abstract: firstString(v, abstractKeys),
		Text:     v.Get("text").String(),
		Score:    v.Get("score").Float(),
	}
	if p.ID == "" {
		p.ID = firstString(v, idKeys)
	}
	if r := v.Get("relevanceScore"); r.Type == gjson.Number {
		p.RelevanceScore = r.Float()
	}
	for _, k := range inlineKeys {
		if r := v.Get(k); r.IsObject() {
			p.BrefRelevance = make(map[string]float64)
			r.ForEach(func(nid, s gjson.Result) bool {
				if s.Type == gjson.Number {
					p.BrefRelevance[nid.String()] = s.Float()
				}
				return true
			})
			break
		}
	}
	if x := v.Get("x"); x.Type == gjson.Number {
		f := x.Float()
		p.X = &f
	}
	if y := v.Get("y"); y.Type == gjson.Number {
		f := y.Float()
		p.Y = &f
	}
	return p
}

// ParseTop decodes a pre-ranked candidate list.  Entries without an id are
// dropped.  Empty input yields an empty list.
func ParseTop(data []byte) ([]Patent, error) {
	if len(data) == 0 {
		return []Patent{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed, "top patents are not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed, "top patents must be a JSON array")
	}
	out := make([]Patent, 0, len(root.Array()))
	for _, item := range root.Array() {
		if !item.IsObject() {
			continue
		}
		p := decodePatent(item, "")
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Index maps patent id to metadata.
type Index map[string]Patent

// Lookup returns the metadata of id.
func (ix Index) Lookup(id string) (Patent, bool) {
	p, ok := ix[id]
	return p, ok
}

// ParseIndex decodes {"patentId": {title, year, abstract|text, x, y}}.
func ParseIndex(data []byte) (Index, error) {
	ix := Index{}
	if len(data) == 0 {
		return ix, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed, "patent index is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed, "patent index must be a JSON object")
	}
	root.ForEach(func(k, v gjson.Result) bool {
		if v.IsObject() {
			ix[k.String()] = decodePatent(v, k.String())
		}
		return true
	})
	return ix, nil
}

// Scores maps patent id to its base pollutant score.
type Scores map[string]float64

// ParseScores decodes {"patentId": score}; non-numeric values are ignored.
func ParseScores(data []byte) (Scores, error) {
	s := Scores{}
	if len(data) == 0 {
		return s, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed, "patent scores are not valid JSON")
	}
	gjson.ParseBytes(data).ForEach(func(k, v gjson.Result) bool {
		if v.Type == gjson.Number {
			s[k.String()] = v.Float()
		}
		return true
	})
	return s, nil
}

//Personal.AI order the ending
