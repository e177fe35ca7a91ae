package assistant

import (
	"fmt"
	"math"
	"strings"

	"github.com/turtacn/bref-insight/internal/domain/patent"
	"github.com/turtacn/bref-insight/internal/domain/sdg"
)

// MaxSectionContent is the number of characters of section text quoted in
// the prompt.
const MaxSectionContent = 500

const preamble = `You are an expert assistant on industrial pollution prevention and control. ` +
	`You help users relate patents to the Best Available Techniques Reference Documents (BREFs) ` +
	`published under the EU Industrial Emissions Directive. ` +
	`Base your answers on the context below; when the context does not cover a question, say so. ` +
	`Cite patents by title and id and BREF sections by name.`

// BuildPrompt assembles the system prompt for the selected patents and
// sections.  Output is a pure function of the arguments.
func BuildPrompt(patents []patent.Patent, sections []Section, pollutant string, sdgs []sdg.SDG) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n")

	if pollutant != "" {
		fmt.Fprintf(&b, "\nActive pollutant: %s\n", pollutant)
	}

	if len(patents) > 0 {
		b.WriteString("\n## Selected patents\n")
		for i, p := range patents {
			writePatent(&b, i+1, p)
		}
	}

	if len(sections) > 0 {
		b.WriteString("\n## Selected BREF sections\n")
		for i, s := range sections {
			fmt.Fprintf(&b, "%d. %s (ID: %s)\n", i+1, s.Label(), s.ID)
			if s.Content != "" {
				fmt.Fprintf(&b, "   Content: %s\n", truncate(s.Content, MaxSectionContent))
			}
		}
	}

	if len(sdgs) > 0 {
		b.WriteString("\n## Related Sustainable Development Goals\n")
		for i, s := range sdgs {
			fmt.Fprintf(&b, "%d. SDG %s", i+1, s.ID)
			if s.Name != "" {
				fmt.Fprintf(&b, ": %s", s.Name)
			}
			b.WriteString("\n")
			if s.Description != "" {
				fmt.Fprintf(&b, "   %s\n", s.Description)
			}
			if s.Score != nil {
				fmt.Fprintf(&b, "   Relevance: %d%%\n", percent(*s.Score))
			}
		}
	}
	return b.String()
}

func writePatent(b *strings.Builder, n int, p patent.Patent) {
	title := p.Title
	if title == "" {
		title = "Untitled patent"
	}
	fmt.Fprintf(b, "%d. %s (ID: %s", n, title, p.ID)
	if p.Year > 0 {
		fmt.Fprintf(b, ", Year: %d", p.Year)
	}
	b.WriteString(")\n")

	if text := p.Summary(); text != "" {
		fmt.Fprintf(b, "   Abstract: %s\n", text)
	}
	score := p.RelevanceScore
	if score == 0 {
		score = p.Score
	}
	fmt.Fprintf(b, "   Relevance: %d%%\n", percent(score))
	if len(p.BrefRelevance) > 0 {
		fmt.Fprintf(b, "   BREF sections with scored relevance: %d\n", len(p.BrefRelevance))
	}
}

func percent(score float64) int {
	return int(math.Round(score * 100))
}

// truncate cuts s to max runes and marks the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

//Personal.AI order the ending
