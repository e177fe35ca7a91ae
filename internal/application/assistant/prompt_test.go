package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/bref-insight/internal/domain/patent"
	"github.com/turtacn/bref-insight/internal/domain/sdg"
)

func TestBuildPrompt_Blocks(t *testing.T) {
	score := 0.8
	prompt := BuildPrompt(
		[]patent.Patent{
			{ID: "EP1", Title: "Scrubber", Year: 2019, Abstract: "Wet scrubbing of flue gas.", RelevanceScore: 0.876,
				BrefRelevance: map[string]float64{"A": 0.7, "B": 0.2}},
			{ID: "EP2", Score: 0.7, Text: "Full text only."},
		},
		[]Section{{ID: "CWW_1", Name: "Monitoring", Content: "Short."}, {ID: "LCP_2"}},
		"Mercury",
		[]sdg.SDG{{ID: "6", Name: "Clean water", Description: "Reduces discharges.", Score: &score}},
	)

	assert.True(t, strings.HasPrefix(prompt, preamble))
	assert.Contains(t, prompt, "Active pollutant: Mercury")
	assert.Contains(t, prompt, "1. Scrubber (ID: EP1, Year: 2019)")
	assert.Contains(t, prompt, "Relevance: 88%")
	assert.Contains(t, prompt, "BREF sections with scored relevance: 2")
	assert.Contains(t, prompt, "Abstract: Wet scrubbing of flue gas.")
	assert.Contains(t, prompt, "2. Untitled patent (ID: EP2)")
	assert.Contains(t, prompt, "Relevance: 70%")
	assert.Contains(t, prompt, "Abstract: Full text only.")
	assert.Contains(t, prompt, "1. Monitoring (ID: CWW_1)")
	assert.Contains(t, prompt, "2. LCP_2 (ID: LCP_2)")
	assert.Contains(t, prompt, "1. SDG 6: Clean water")
	assert.Contains(t, prompt, "Relevance: 80%")

	assert.Less(t, strings.Index(prompt, "## Selected patents"), strings.Index(prompt, "## Selected BREF sections"))
}

func TestBuildPrompt_PatentFieldOrder(t *testing.T) {
	prompt := BuildPrompt([]patent.Patent{{
		ID: "EP1", Title: "Scrubber", Year: 2019, Abstract: "Wet scrubbing.", RelevanceScore: 0.9,
		BrefRelevance: map[string]float64{"A": 0.7},
	}}, nil, "", nil)

	order := []string{
		"1. Scrubber",
		"(ID: EP1",
		"Year: 2019",
		"Abstract: Wet scrubbing.",
		"Relevance: 90%",
		"BREF sections with scored relevance: 1",
	}
	last := -1
	for _, part := range order {
		idx := strings.Index(prompt, part)
		if assert.GreaterOrEqual(t, idx, 0, part) {
			assert.Greater(t, idx, last, part)
			last = idx
		}
	}
}

func TestBuildPrompt_TruncatesSectionContent(t *testing.T) {
	long := strings.Repeat("é", MaxSectionContent+20)
	prompt := BuildPrompt(nil, []Section{{ID: "S", Content: long}}, "", nil)

	want := strings.Repeat("é", MaxSectionContent) + "..."
	assert.Contains(t, prompt, "Content: "+want+"\n")

	exact := strings.Repeat("x", MaxSectionContent)
	prompt = BuildPrompt(nil, []Section{{ID: "S", Content: exact}}, "", nil)
	assert.Contains(t, prompt, "Content: "+exact+"\n")
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	ps := []patent.Patent{{ID: "EP1", Score: 0.9}}
	ss := []Section{{ID: "S"}}
	assert.Equal(t, BuildPrompt(ps, ss, "Lead", nil), BuildPrompt(ps, ss, "Lead", nil))
	assert.NotContains(t, BuildPrompt(nil, nil, "", nil), "##")
}

//Personal.AI order the ending
