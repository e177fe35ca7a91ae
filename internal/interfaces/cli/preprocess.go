package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/bref-insight/internal/application/preprocess"
	"github.com/turtacn/bref-insight/internal/config"
	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/internal/infrastructure/storage/minio"
	"github.com/turtacn/bref-insight/pkg/errors"
)

// PreprocessResult wraps the run report for output.
type PreprocessResult struct {
	*preprocess.Report
}

func (r PreprocessResult) TableHeaders() []string {
	return []string{"Pollutant", "Slug", "Matches", "Documents", "Nodes"}
}

func (r PreprocessResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Pollutants))
	for _, p := range r.Pollutants {
		rows = append(rows, []string{
			p.Pollutant,
			p.Slug,
			strconv.Itoa(p.Matches),
			strconv.Itoa(p.MatchedDocuments),
			strconv.Itoa(p.MatchedNodes),
		})
	}
	return rows
}

// NewPreprocessCmd creates the preprocess command.
func NewPreprocessCmd() *cobra.Command {
	var (
		input  string
		csv    string
		output string
		upload bool
	)

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Derive per-pollutant hierarchies from the label table",
		Long: "Read the main BREF hierarchy, the pollutant filenames map and the\n" +
			"section × pollutant label table, then write the flagged per-pollutant\n" +
			"hierarchies, tag the flat map and write the pollutant lookup.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if input == "" {
				input = cliCtx.Config.Data.Root
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			pcfg := preprocess.Config{
				InputDir:  input,
				CSVPath:   csv,
				OutputDir: output,
				Layout: docstore.Layout{
					Hierarchy: cliCtx.Config.Data.Paths.Hierarchy,
					Filenames: cliCtx.Config.Data.Paths.PollutantFilenames,
				},
			}
			if upload {
				up, closeFn, err := bucketUploader(ctx, cliCtx.Config, cliCtx.Logger)
				if err != nil {
					return err
				}
				defer closeFn()
				pcfg.Uploader = up
			}

			report, err := preprocess.NewProcessor(pcfg, cliCtx.Logger).Process(ctx)
			if err != nil {
				return err
			}
			if err := PrintResult(cmd, PreprocessResult{Report: report}); err != nil {
				return err
			}
			if cliCtx.OutputFormat != OutputJSON {
				PrintSuccess(cmd, strconv.Itoa(len(report.Files))+" files written")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "directory with the main hierarchy (default: data.root)")
	cmd.Flags().StringVar(&csv, "csv", "bref_pollutant.csv", "label table, relative to --input unless absolute")
	cmd.Flags().StringVar(&output, "output-dir", "", "output directory (default: --input)")
	cmd.Flags().BoolVar(&upload, "upload", false, "publish the outputs to the minio bucket")
	return cmd
}

// bucketUploader publishes outputs through the minio fixture repository.
func bucketUploader(ctx context.Context, cfg *config.Config, logger logging.Logger) (preprocess.Uploader, func() error, error) {
	if cfg.MinIO.Endpoint == "" || cfg.MinIO.Bucket == "" {
		return nil, nil, errors.New(errors.ErrCodeSourceMisconfig, "minio.endpoint and minio.bucket are required for --upload")
	}
	mc, err := minio.NewMinIOClient(&minio.MinIOConfig{
		Endpoint:        cfg.MinIO.Endpoint,
		AccessKeyID:     cfg.MinIO.AccessKey,
		SecretAccessKey: cfg.MinIO.SecretKey,
		UseSSL:          cfg.MinIO.UseSSL,
		Region:          cfg.MinIO.Region,
		Bucket:          cfg.MinIO.Bucket,
		Prefix:          cfg.Data.ObjectPrefix,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := mc.EnsureBucket(ctx); err != nil {
		mc.Close()
		return nil, nil, err
	}
	repo := minio.NewFixtureRepository(mc, logger)
	up := preprocess.UploaderFunc(func(ctx context.Context, p string, data []byte) error {
		_, err := repo.Upload(ctx, p, data)
		return err
	})
	return up, mc.Close, nil
}

//Personal.AI order the ending
