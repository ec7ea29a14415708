package analyse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/codemedic/cmd/version"
	"github.com/scan-io-git/codemedic/internal/artifacts"
	"github.com/scan-io-git/codemedic/internal/config"
	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/logger"
	"github.com/scan-io-git/codemedic/internal/pipeline"
	"github.com/scan-io-git/codemedic/internal/report"
	"github.com/scan-io-git/codemedic/pkg/shared"
	errs "github.com/scan-io-git/codemedic/pkg/shared/errors"
)

// RunOptionsAnalyse holds the arguments for the analyse command.
type RunOptionsAnalyse struct {
	InputFile  string
	Language   string
	Format     string
	OutputPath string
	Redact     bool
	Upload     bool
}

// Global variables for configuration and command arguments
var (
	AppConfig           *config.Config
	analyseOptions      RunOptionsAnalyse
	exampleAnalyseUsage = `  # Analysing a single file, the language is taken from the extension
  codemedic analyse /path/to/app.py

  # Analysing a file with an explicit language
  codemedic analyse --language javascript --input-file /path/to/snippet.txt

  # Analysing code from stdin and printing the result as JSON
  cat handler.go | codemedic analyse --language go --format json -

  # Masking credentials found in the sample before it is sent to the model
  codemedic analyse --redact /path/to/settings.py

  # Saving the report, SARIF and fixed code to a folder and uploading them to S3
  codemedic analyse /path/to/app.py --output /path/to/results --upload`
)

// AnalyseCmd represents the analyse command.
var AnalyseCmd = &cobra.Command{
	Use:                   "analyse [--language/-l LANGUAGE] [--format/-f text|json] [--output/-o PATH [--upload]] [--redact] {--input-file/-i PATH | PATH | -}",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAnalyseUsage,
	Short:                 "Detects issues in a code sample, fixes them and verifies the fix",
	Long: fmt.Sprintf(`Detects bugs and security issues in a code sample, produces a fixed version and verifies it.

List of supported languages:
  %s`, strings.Join(findings.SupportedLanguages, "\n  ")),
	RunE: runAnalyseCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runAnalyseCommand executes the analyse command.
func runAnalyseCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-analyse")

	if err := validateAnalyseArgs(&analyseOptions, args); err != nil {
		logger.Error("invalid analyse arguments", "error", err)
		return err
	}

	sample, err := readSample(&analyseOptions, targetPath(&analyseOptions, args), cmd.InOrStdin(), int64(AppConfig.Server.MaxCodeBytes))
	if err != nil {
		logger.Error("failed to read the code sample", "error", err)
		return err
	}

	sample, err = prepareSample(sample, analyseOptions.Redact)
	if err != nil {
		logger.Error("code sample rejected", "error", err)
		return err
	}

	apiKey, err := config.ResolveAPIKey(AppConfig)
	if err != nil {
		logger.Error("failed to load credentials", "error", err)
		return err
	}

	controller, closeFn, err := pipeline.NewFromConfig(cmd.Context(), AppConfig, apiKey, logger)
	if err != nil {
		logger.Error("failed to initialise the model backend", "error", err)
		return err
	}
	defer closeFn()

	session := pipeline.NewSession(pipeline.WithObserver(progressObserver(cmd.ErrOrStderr())))
	result := controller.Run(cmd.Context(), session, sample)

	renderer, err := report.NewRenderer()
	if err != nil {
		return err
	}
	if err := writeResult(cmd.OutOrStdout(), analyseOptions.Format, renderer, result); err != nil {
		logger.Error("failed to write result", "error", err)
		return err
	}

	if analyseOptions.OutputPath != "" {
		if err := saveArtifacts(cmd.Context(), logger, &analyseOptions, result); err != nil {
			return err
		}
	}

	if !result.Succeeded() {
		logger.Error("analyse command failed", "state", result.State)
		return errs.NewCommandErrorWithResult(result, failureError(result), errs.ExitFailed)
	}

	logger.Info("analyse command completed successfully", "state", result.State, "run_id", result.RunID)
	return nil
}

// saveArtifacts writes the run artifacts under the output folder and optionally uploads them.
func saveArtifacts(ctx context.Context, logger hclog.Logger, opts *RunOptionsAnalyse, result *pipeline.Result) error {
	writer, err := artifacts.NewWriter(logger.Named("artifacts"), version.CoreVersion)
	if err != nil {
		return err
	}

	saved, err := writer.Save(opts.OutputPath, result)
	if err != nil {
		logger.Error("failed to save artifacts", "error", err)
		return err
	}
	logger.Info("artifacts saved", "path", saved.Folder, "files", len(saved.Files))

	if !opts.Upload {
		return nil
	}

	uploader, err := artifacts.NewS3Uploader(AppConfig, logger.Named("s3"))
	if err != nil {
		logger.Error("failed to initialise the uploader", "error", err)
		return err
	}
	locations, err := uploader.Upload(ctx, result.RunID, saved.Files)
	if err != nil {
		logger.Error("failed to upload artifacts", "error", err)
		return err
	}
	logger.Info("artifacts uploaded", "locations", locations)
	return nil
}

func failureError(result *pipeline.Result) error {
	if result.Failure != nil {
		return result.Failure
	}
	return errors.New("analysis did not complete")
}

// Initialize flags for the analyse command.
func init() {
	AnalyseCmd.Flags().StringVarP(&analyseOptions.InputFile, "input-file", "i", "", "Path to the file with the code sample. Use '-' to read from stdin.")
	AnalyseCmd.Flags().StringVarP(&analyseOptions.Language, "language", "l", "", "Language of the code sample. Guessed from the file extension when omitted.")
	AnalyseCmd.Flags().StringVarP(&analyseOptions.Format, "format", "f", FormatText, "Output format: text or json.")
	AnalyseCmd.Flags().StringVarP(&analyseOptions.OutputPath, "output", "o", "", "Directory where the report, SARIF file and fixed code will be saved.")
	AnalyseCmd.Flags().BoolVar(&analyseOptions.Redact, "redact", false, "Mask credentials found in the sample instead of refusing to analyse it.")
	AnalyseCmd.Flags().BoolVar(&analyseOptions.Upload, "upload", false, "Upload the saved artifacts to the configured S3 bucket. Requires --output.")
	AnalyseCmd.Flags().BoolP("help", "h", false, "Show help for the analyse command.")
}
