package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/bref-insight/internal/application/dashboard"
	"github.com/turtacn/bref-insight/internal/domain/bref"
	"github.com/turtacn/bref-insight/internal/domain/patent"
	"github.com/turtacn/bref-insight/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// pollutants
// ─────────────────────────────────────────────────────────────────────────────

// PollutantList is the result of the pollutants command.
type PollutantList struct {
	Pollutants   []string `json:"pollutants"`
	TotalPatents int      `json:"total_patents"`
	CreationDate string   `json:"creation_date,omitempty"`
}

func (l PollutantList) TableHeaders() []string { return []string{"#", "Pollutant"} }

func (l PollutantList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Pollutants))
	for i, p := range l.Pollutants {
		rows = append(rows, []string{strconv.Itoa(i + 1), p})
	}
	return rows
}

func (l PollutantList) String() string {
	var sb strings.Builder
	for _, p := range l.Pollutants {
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// NewPollutantsCmd creates the pollutants command.
func NewPollutantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pollutants",
		Short: "List the pollutants of the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, b, err := openSession(ctx, cliCtx, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			sum := s.Summary()
			return PrintResult(cmd, PollutantList{
				Pollutants:   s.Pollutants(),
				TotalPatents: sum.TotalPatents,
				CreationDate: sum.CreationDate,
			})
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// tree
// ─────────────────────────────────────────────────────────────────────────────

// TreeRow is one visible navigator row.
type TreeRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Depth      int    `json:"depth"`
	Relevant   bool   `json:"relevant"`
	Selectable bool   `json:"selectable"`
	Badge      *int   `json:"badge,omitempty"`
}

// TreeView is the result of the tree command.
type TreeView struct {
	Pollutant string    `json:"pollutant,omitempty"`
	Rows      []TreeRow `json:"rows"`
}

func (v TreeView) TableHeaders() []string {
	return []string{"ID", "Name", "Depth", "Relevant", "Badge"}
}

func (v TreeView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		badge := ""
		if r.Badge != nil {
			badge = strconv.Itoa(*r.Badge)
		}
		rows = append(rows, []string{r.ID, r.Name, strconv.Itoa(r.Depth), yesNo(r.Relevant), badge})
	}
	return rows
}

func (v TreeView) String() string {
	var sb strings.Builder
	for _, r := range v.Rows {
		sb.WriteString(strings.Repeat("  ", r.Depth))
		label := r.Name
		if label == "" {
			label = r.ID
		}
		if r.Relevant && v.Pollutant != "" {
			label = color.GreenString(label)
		}
		sb.WriteString(label)
		if r.Badge != nil {
			fmt.Fprintf(&sb, " [%d]", *r.Badge)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// NewTreeCmd creates the tree command.
func NewTreeCmd() *cobra.Command {
	var (
		pollutant    string
		relevantOnly bool
		expandAll    bool
		expand       []string
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the BREF hierarchy with relevance badges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, b, err := openSession(ctx, cliCtx, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := s.SelectPollutant(ctx, pollutant); err != nil {
				return err
			}
			nav := s.Navigator()
			nav.SetShowOnlyRelevant(relevantOnly)
			if expandAll {
				nav.ExpandAll()
			}
			for _, id := range expand {
				nav.Expand(id)
			}

			view := TreeView{Pollutant: s.Pollutant(), Rows: []TreeRow{}}
			for _, r := range nav.VisibleRows() {
				row := TreeRow{
					ID:         r.Node.ID,
					Name:       r.Node.DisplayName(),
					Depth:      r.Depth,
					Relevant:   r.Node.IsRelevant(),
					Selectable: r.Selectable,
				}
				if r.HasBadge {
					n := r.Badge
					row.Badge = &n
				}
				view.Rows = append(view.Rows, row)
			}
			return PrintResult(cmd, view)
		},
	}
	cmd.Flags().StringVarP(&pollutant, "pollutant", "p", "", "pollutant to evaluate relevance for")
	cmd.Flags().BoolVar(&relevantOnly, "relevant-only", false, "hide documents without relevant sections")
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "expand every node")
	cmd.Flags().StringSliceVar(&expand, "expand", nil, "node ids to expand")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// counts
// ─────────────────────────────────────────────────────────────────────────────

// CountRow is one node's relevant-patent counts.
type CountRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Direct     int    `json:"direct"`
	Cumulative int    `json:"cumulative"`
}

// CountTable is the result of the counts command.
type CountTable struct {
	Pollutant string     `json:"pollutant"`
	Threshold float64    `json:"threshold"`
	Rows      []CountRow `json:"rows"`
}

func (t CountTable) TableHeaders() []string {
	return []string{"ID", "Name", "Direct", "Cumulative"}
}

func (t CountTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, []string{r.ID, r.Name, strconv.Itoa(r.Direct), strconv.Itoa(r.Cumulative)})
	}
	return rows
}

// NewCountsCmd creates the counts command.
func NewCountsCmd() *cobra.Command {
	var (
		pollutant string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Show cumulative relevant-patent counts per BREF section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pollutant == "" {
				return errors.New(errors.ErrCodeValidation, "--pollutant is required")
			}
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, b, err := openSession(ctx, cliCtx, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := s.SelectPollutant(ctx, pollutant); err != nil {
				return err
			}
			return PrintResult(cmd, buildCountTable(s, cliCtx.Config.Relevance.Threshold, all))
		},
	}
	cmd.Flags().StringVarP(&pollutant, "pollutant", "p", "", "pollutant to count for (required)")
	cmd.Flags().BoolVar(&all, "all", false, "include relevant nodes with a zero count")
	return cmd
}

// buildCountTable lists relevant nodes in tree order.
func buildCountTable(s *dashboard.Session, threshold float64, all bool) CountTable {
	counts := s.Counts()
	table := CountTable{Pollutant: s.Pollutant(), Threshold: threshold, Rows: []CountRow{}}
	if counts == nil {
		return table
	}
	s.Navigator().Hierarchy().Walk(func(n *bref.Node, _ int) bool {
		if !counts.Relevant.Has(n.ID) {
			return true
		}
		cum := counts.Cumulative[n.ID]
		if cum == 0 && !all {
			return true
		}
		table.Rows = append(table.Rows, CountRow{
			ID:         n.ID,
			Name:       n.DisplayName(),
			Direct:     counts.Direct[n.ID],
			Cumulative: cum,
		})
		return true
	})
	return table
}

// ─────────────────────────────────────────────────────────────────────────────
// patents
// ─────────────────────────────────────────────────────────────────────────────

// PatentList is the result of the patents command.
type PatentList struct {
	Pollutant     string          `json:"pollutant"`
	Section       string          `json:"section,omitempty"`
	State         string          `json:"state"`
	RelevantCount int             `json:"relevant_count"`
	Patents       []patent.Patent `json:"patents"`
}

func (l PatentList) TableHeaders() []string {
	return []string{"Rank", "Relevance", "Patent", "Title", "Year"}
}

func (l PatentList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Patents))
	for i, p := range l.Patents {
		year := ""
		if p.Year > 0 {
			year = strconv.Itoa(p.Year)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			scoreString(p.RelevanceScore),
			p.ID,
			p.Title,
			year,
		})
	}
	return rows
}

func (l PatentList) String() string {
	if len(l.Patents) == 0 {
		if l.State == patent.StateNoRelevantPatents.String() {
			return "No patent reaches the relevance threshold for this section.\n"
		}
		return "No patents.\n"
	}
	var sb strings.Builder
	for i, p := range l.Patents {
		fmt.Fprintf(&sb, "%d. %s %s %s\n", i+1, scoreString(p.RelevanceScore), p.ID, p.Title)
	}
	return sb.String()
}

// NewPatentsCmd creates the patents command.
func NewPatentsCmd() *cobra.Command {
	var (
		pollutant string
		section   string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "patents",
		Short: "Rank patents for a pollutant and optional BREF section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pollutant == "" {
				return errors.New(errors.ErrCodeValidation, "--pollutant is required")
			}
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if limit > 0 {
				cfg := *cliCtx.Config
				cfg.Relevance.RankLimit = limit
				cliCtx = &CLIContext{Config: &cfg, Logger: cliCtx.Logger, OutputFormat: cliCtx.OutputFormat, Timeout: cliCtx.Timeout}
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, b, err := openSession(ctx, cliCtx, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := s.SelectPollutant(ctx, pollutant); err != nil {
				return err
			}
			if section != "" {
				if err := s.SelectSection(section); err != nil {
					return err
				}
			}
			res := s.RankedPatents()
			return PrintResult(cmd, PatentList{
				Pollutant:     s.Pollutant(),
				Section:       section,
				State:         res.State.String(),
				RelevantCount: res.RelevantCount,
				Patents:       res.Patents,
			})
		},
	}
	cmd.Flags().StringVarP(&pollutant, "pollutant", "p", "", "pollutant (required)")
	cmd.Flags().StringVar(&section, "bref", "", "BREF section id to rank by")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of patents (default: relevance.rank_limit)")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// scoreString colors a relevance score by band.
func scoreString(score float64) string {
	s := strconv.FormatFloat(score, 'f', 2, 64)
	switch {
	case score >= 0.8:
		return color.GreenString(s)
	case score >= bref.DefaultThreshold:
		return color.YellowString(s)
	default:
		return s
	}
}

//Personal.AI order the ending
