// Package sdg decodes the Sustainable Development Goal entries linked to a
// pollutant.
package sdg

import (
	"github.com/tidwall/gjson"

	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// SDG is one Sustainable Development Goal entry linked to a pollutant.
type SDG struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// Parse decodes {"sdgId": descriptor} in document order.  A descriptor
// is a string, a number or an object with name/description/score fields.
func Parse(data []byte) ([]SDG, error) {
	out := []SDG{}
	if len(data) == 0 {
		return out, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed, "sdg data is not valid JSON")
	}
	gjson.ParseBytes(data).ForEach(func(k, v gjson.Result) bool {
		s := SDG{ID: k.String()}
		switch {
		case v.Type == gjson.String:
			s.Description = v.String()
		case v.Type == gjson.Number:
			f := v.Float()
			s.Score = &f
		case v.IsObject():
			s.Name = first(v, "name", "title")
			s.Description = first(v, "description", "explanation", "relevance_description", "text")
			for _, key := range []string{"score", "relevance", "relevance_score"} {
				if r := v.Get(key); r.Type == gjson.Number {
					f := r.Float()
					s.Score = &f
					break
				}
			}
		default:
			return true
		}
		out = append(out, s)
		return true
	})
	return out, nil
}

func first(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if r := v.Get(k); r.Type == gjson.String && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

//Personal.AI order the ending
