package analyse

import (
	"fmt"
	"os"
	"strings"

	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/pkg/shared"
	"github.com/scan-io-git/codemedic/pkg/shared/files"
)

// validateAnalyseArgs validates the arguments provided to the analyse command.
func validateAnalyseArgs(allArgumentsAnalyse *RunOptionsAnalyse, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("only one target path can be specified, got %d", len(args))
	}

	if len(args) == 0 && allArgumentsAnalyse.InputFile == "" {
		return fmt.Errorf("either 'input-file' flag or a target path must be specified")
	}

	if len(args) == 1 && allArgumentsAnalyse.InputFile != "" {
		return fmt.Errorf("you cannot use an 'input-file' flag and a target path at the same time")
	}

	if err := validateTarget(targetPath(allArgumentsAnalyse, args)); err != nil {
		return err
	}

	if allArgumentsAnalyse.Format == "" {
		allArgumentsAnalyse.Format = FormatText
	}
	if !shared.IsInList(allArgumentsAnalyse.Format, []string{FormatText, FormatJSON}) {
		return fmt.Errorf("the 'format' flag must be one of %q or %q: %q", FormatText, FormatJSON, allArgumentsAnalyse.Format)
	}
	allArgumentsAnalyse.Format = strings.ToLower(allArgumentsAnalyse.Format)

	if allArgumentsAnalyse.Language != "" {
		if _, err := findings.NormalizeLanguage(allArgumentsAnalyse.Language); err != nil {
			return err
		}
	}

	if allArgumentsAnalyse.Upload && allArgumentsAnalyse.OutputPath == "" {
		return fmt.Errorf("the 'upload' flag requires the 'output' flag")
	}

	return nil
}

func validateTarget(path string) error {
	if path == stdinPath {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("the target path does not exist: %v", path)
	}
	if err != nil {
		return fmt.Errorf("the target path is not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("the target path is a directory, not a file: %v", path)
	}
	if err := files.ValidatePath(path); err != nil {
		return fmt.Errorf("the target path cannot be read as a source file: %w", err)
	}
	return nil
}
