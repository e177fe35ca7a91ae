package preprocess

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

// Output locations relative to the output directory.
const (
	HierarchyDir = "pollutant_bref_hierarchies"
	LookupFile   = "pollutant_bref_lookup.json"
	TopReported  = 10
)

// Uploader publishes a generated file under its output-relative path.
// The minio fixture repository satisfies it through an adapter.
type Uploader interface {
	Upload(ctx context.Context, p string, data []byte) error
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, p string, data []byte) error

func (f UploaderFunc) Upload(ctx context.Context, p string, data []byte) error { return f(ctx, p, data) }

// Config locates the inputs and outputs of a run.
type Config struct {
	// InputDir holds the main hierarchy and the filenames map.
	InputDir string
	// CSVPath is the label table; relative paths resolve against InputDir.
	CSVPath string
	// OutputDir defaults to InputDir.
	OutputDir string
	Layout    docstore.Layout
	Uploader  Uploader
}

// PollutantReport describes one generated hierarchy.
type PollutantReport struct {
	Pollutant        string `json:"pollutant"`
	Slug             string `json:"slug"`
	Matches          int    `json:"matches"`
	MatchedDocuments int    `json:"matched_documents"`
	MatchedNodes     int    `json:"matched_nodes"`
	File             string `json:"file"`
	SlugFallback     bool   `json:"slug_fallback,omitempty"`
}

// Report is the result of a run.
type Report struct {
	Rows          int               `json:"rows"`
	Pollutants    []PollutantReport `json:"pollutants"`
	Top           []PollutantCount  `json:"top"`
	TaggedEntries int               `json:"tagged_entries"`
	Files         []string          `json:"files"`
	Uploaded      []string          `json:"uploaded,omitempty"`
	Duration      time.Duration     `json:"duration"`
}

// Processor runs the offline fixture derivation.
type Processor struct {
	cfg    Config
	logger logging.Logger
}

// NewProcessor returns a Processor; a nil logger discards output.
func NewProcessor(cfg Config, logger logging.Logger) *Processor {
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.InputDir
	}
	if cfg.CSVPath != "" && !filepath.IsAbs(cfg.CSVPath) {
		cfg.CSVPath = filepath.Join(cfg.InputDir, cfg.CSVPath)
	}
	if cfg.Layout == (docstore.Layout{}) {
		cfg.Layout = docstore.DefaultLayout()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Processor{cfg: cfg, logger: logger.Named("preprocess")}
}

// Process reads the inputs, writes every derived file and uploads them
// when an Uploader is configured.
func (p *Processor) Process(ctx context.Context) (*Report, error) {
	start := time.Now()
	if p.cfg.CSVPath == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "label table path is required")
	}

	mainPath := filepath.Join(p.cfg.InputDir, p.cfg.Layout.Hierarchy)
	main, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeResourceNotFound, "read hierarchy").WithDetail(mainPath)
	}
	if !gjson.ValidBytes(main) {
		return nil, apperrors.New(apperrors.ErrCodeDecodeFailed, "hierarchy is not valid JSON").WithDetail(mainPath)
	}
	hierarchy := []byte(gjson.GetBytes(main, "hierarchy").Raw)
	if len(hierarchy) == 0 {
		hierarchy = []byte("{}")
	}

	slugs := p.readFilenames()

	f, err := os.Open(p.cfg.CSVPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeResourceNotFound, "open label table").WithDetail(p.cfg.CSVPath)
	}
	matches, err := ReadMatches(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	p.logger.Info("Loaded label table",
		logging.Int("rows", matches.Rows()),
		logging.Int("pollutants", len(matches.Pollutants())))

	report := &Report{Rows: matches.Rows()}
	outputs := map[string][]byte{}
	var order []string
	emit := func(rel string, data []byte) {
		if _, ok := outputs[rel]; !ok {
			order = append(order, rel)
		}
		outputs[rel] = data
	}

	for _, pollutant := range matches.Pollutants() {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeFetchTimeout, "preprocess cancelled")
		}
		slug, ok := slugs[pollutant]
		if !ok || slug == "" {
			p.logger.Warn("No filename mapping for pollutant", logging.String("pollutant", pollutant))
			slug = docstore.Slugify(pollutant)
		}

		annotated, stats := Annotate(hierarchy, func(code string) bool { return matches.Has(pollutant, code) })
		if missing := Validate(annotated); len(missing) > 0 {
			p.logger.Warn("Match flags missing", logging.String("pollutant", pollutant), logging.Strings("paths", missing))
		}
		rel := p.cfg.Layout.Path(docstore.HierarchyKey{Slug: slug})
		emit(rel, annotated)

		report.Pollutants = append(report.Pollutants, PollutantReport{
			Pollutant:        pollutant,
			Slug:             slug,
			Matches:          matches.Count(pollutant),
			MatchedDocuments: stats.MatchedDocuments,
			MatchedNodes:     stats.MatchedNodes,
			File:             rel,
			SlugFallback:     !ok || slugs[pollutant] == "",
		})
		p.logger.Debug("Annotated hierarchy",
			logging.String("pollutant", pollutant),
			logging.String("slug", slug),
			logging.Int("matched_documents", stats.MatchedDocuments),
			logging.Int("documents", stats.Documents))
	}

	tagged, n := TagFlatMap(main, matches.PollutantsFor)
	report.TaggedEntries = n
	emit(p.cfg.Layout.Hierarchy, tagged)

	lookup, err := lookupJSON(matches)
	if err != nil {
		return nil, err
	}
	emit(LookupFile, lookup)

	for _, rel := range order {
		if err := writeFile(filepath.Join(p.cfg.OutputDir, filepath.FromSlash(rel)), outputs[rel]); err != nil {
			return nil, err
		}
		report.Files = append(report.Files, rel)
	}

	report.Top = matches.Top(TopReported)
	for _, c := range report.Top {
		p.logger.Info("Pollutant matches", logging.String("pollutant", c.Pollutant), logging.Int("count", c.Count))
	}

	if p.cfg.Uploader != nil {
		for _, rel := range order {
			if err := p.cfg.Uploader.Upload(ctx, rel, outputs[rel]); err != nil {
				return report, apperrors.Wrap(err, apperrors.ErrCodeInternal, "upload fixture").WithDetail(rel)
			}
			report.Uploaded = append(report.Uploaded, rel)
		}
		p.logger.Info("Uploaded fixtures", logging.Int("files", len(report.Uploaded)))
	}

	report.Duration = time.Since(start)
	p.logger.Info("Preprocessing complete",
		logging.Int("files", len(report.Files)),
		logging.Int("tagged_entries", n),
		logging.Duration("duration", report.Duration))
	return report, nil
}

// readFilenames loads the display name → slug map.  A missing or broken
// file yields an empty map.
func (p *Processor) readFilenames() map[string]string {
	fp := filepath.Join(p.cfg.InputDir, p.cfg.Layout.Filenames)
	data, err := os.ReadFile(fp)
	if err != nil {
		p.logger.Warn("Filenames map unavailable", logging.String("path", fp), logging.Err(err))
		return map[string]string{}
	}
	out := map[string]string{}
	if err := json.Unmarshal(data, &out); err != nil {
		p.logger.Warn("Filenames map is malformed", logging.String("path", fp), logging.Err(err))
		return map[string]string{}
	}
	return out
}

// lookupJSON renders pollutant → sorted codes, keeping pollutant order.
func lookupJSON(m *Matches) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pollutant := range m.Pollutants() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(pollutant)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode lookup")
		}
		v, err := json.Marshal(m.Codes(pollutant))
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode lookup")
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeFile(fp string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "create output directory").WithDetail(path.Dir(filepath.ToSlash(fp)))
	}
	if err := os.WriteFile(fp, data, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "write output").WithDetail(fp)
	}
	return nil
}

//Personal.AI order the ending
