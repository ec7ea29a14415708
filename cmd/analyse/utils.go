package analyse

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/pipeline"
	"github.com/scan-io-git/codemedic/internal/report"
	"github.com/scan-io-git/codemedic/internal/secrets"
	"github.com/scan-io-git/codemedic/pkg/shared/files"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

const stdinPath = "-"

// targetPath returns the validated source of the code sample.
func targetPath(options *RunOptionsAnalyse, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return options.InputFile
}

// readSample loads the code sample from path, or from stdin when path is "-".
// The explicit language wins over the one guessed from the file extension.
func readSample(options *RunOptionsAnalyse, path string, stdin io.Reader, limit int64) (findings.CodeSample, error) {
	var (
		data []byte
		err  error
	)
	if path == stdinPath {
		data, err = files.ReadLimited(stdin, limit)
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return findings.CodeSample{}, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		data, err = files.ReadLimited(f, limit)
	}
	if err != nil {
		return findings.CodeSample{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return findings.CodeSample{}, fmt.Errorf("the code sample is empty")
	}

	language := findings.LanguageFromPath(path)
	if options.Language != "" {
		language, err = findings.NormalizeLanguage(options.Language)
		if err != nil {
			return findings.CodeSample{}, err
		}
	}

	return findings.CodeSample{Code: string(data), Language: language}, nil
}

// prepareSample refuses samples that look like they contain credentials, unless redaction is requested.
func prepareSample(sample findings.CodeSample, redact bool) (findings.CodeSample, error) {
	kinds := secrets.Detect(sample.Code)
	if len(kinds) == 0 {
		return sample, nil
	}
	if !redact {
		return sample, fmt.Errorf("potential secrets detected (%s): remove them or rerun with --redact", strings.Join(kinds, ", "))
	}
	sample.Code = secrets.Redact(sample.Code)
	return sample, nil
}

// progressObserver prints state changes and retry waits.
func progressObserver(w io.Writer) pipeline.Observer {
	return func(ev pipeline.Event) {
		switch ev.Kind {
		case pipeline.EventTransition:
			fmt.Fprintf(w, "[%s] %s -> %s\n", ev.At.Format("15:04:05"), ev.From, ev.To)
		case pipeline.EventRetry:
			fmt.Fprintf(w, "[%s] %s rate limited, retrying in %s (attempt %d of %d)\n",
				ev.At.Format("15:04:05"), ev.Stage.Title(), ev.Delay, ev.Attempt+1, ev.MaxAttempts)
		}
	}
}

// writeResult prints the run result in the requested format.
func writeResult(w io.Writer, format string, renderer *report.Renderer, result *pipeline.Result) error {
	if format == FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "    ")
		return encoder.Encode(result)
	}
	return renderer.Write(w, result)
}
