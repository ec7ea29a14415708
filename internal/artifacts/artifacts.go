package artifacts

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/codemedic/internal/pipeline"
	"github.com/scan-io-git/codemedic/internal/report"
	"github.com/scan-io-git/codemedic/internal/sarif"
	"github.com/scan-io-git/codemedic/pkg/shared/files"
)

const (
	ReportFileName = "report.txt"
	SarifFileName  = "results.sarif"
	ResultFileName = "result.json"

	// FolderTimeLayout is a compact UTC timestamp usable in folder names on every platform.
	FolderTimeLayout = "20060102T150405Z"
)

// Saved describes the files written for one run.
type Saved struct {
	Folder string
	Files  []string
}

// GetArtifactFolderName returns the per-run folder name.
// Example: 20261019T082846Z_5f0c2a7e.
func GetArtifactFolderName(result *pipeline.Result) string {
	ts := result.StartedAt.UTC().Format(FolderTimeLayout)
	id := result.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s", ts, id)
}

// Writer saves the downloadable artifacts of a run to disk.
type Writer struct {
	renderer    *report.Renderer
	logger      hclog.Logger
	toolVersion string
}

// NewWriter creates a Writer. toolVersion is recorded in the SARIF driver.
func NewWriter(logger hclog.Logger, toolVersion string) (*Writer, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	renderer, err := report.NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Writer{renderer: renderer, logger: logger, toolVersion: toolVersion}, nil
}

// Save writes the artifacts of result into a new per-run folder under outputDir.
// The JSON result and the text report are always written; SARIF needs findings and the fixed code needs a fix.
// On failure the returned Saved lists the files written so far.
func (w *Writer) Save(outputDir string, result *pipeline.Result) (Saved, error) {
	if result == nil {
		return Saved{}, fmt.Errorf("no result to save")
	}
	expanded, err := files.ExpandPath(outputDir)
	if err != nil {
		return Saved{}, fmt.Errorf("failed to expand output folder: %w", err)
	}
	dir, err := files.EnsureWithinRoot(expanded, filepath.Join(expanded, GetArtifactFolderName(result)))
	if err != nil {
		return Saved{}, err
	}
	if err := files.CreateFolderIfNotExists(dir); err != nil {
		return Saved{}, err
	}

	saved := Saved{Folder: dir}
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := files.WriteFile(path, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		saved.Files = append(saved.Files, path)
		return nil
	}

	resultData, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return saved, fmt.Errorf("error marshaling the result data: %w", err)
	}
	if err := write(ResultFileName, resultData); err != nil {
		return saved, err
	}

	text, err := w.renderer.Text(result)
	if err != nil {
		return saved, err
	}
	if err := write(ReportFileName, []byte(text)); err != nil {
		return saved, err
	}

	if result.Findings != nil {
		sarifReport, err := sarif.FromFindingSet(result.Findings, result.Sample, sarif.Options{ToolVersion: w.toolVersion}, w.logger)
		if err != nil {
			return saved, err
		}
		path := filepath.Join(dir, SarifFileName)
		if err := sarifReport.WriteFile(path); err != nil {
			return saved, err
		}
		saved.Files = append(saved.Files, path)
		w.logger.Debug("SARIF severity summary", "severity", sarifReport.CollectSeverityInfo())
	}

	if result.Fix != nil {
		if err := write(report.FixedCodeFileName(result.Sample.Language), []byte(result.Fix.FixedCode)); err != nil {
			return saved, err
		}
	}

	w.logger.Info("artifacts saved", "folder", dir, "files", len(saved.Files))
	return saved, nil
}
