// Package export persists pipeline results to disk: the processed
// variables CSV, one JSON config per variable, and the handler summary
// text file. The pipeline itself never touches the filesystem; this is
// its persistence collaborator.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/axsol/varconfig/internal/csvio"
	"github.com/axsol/varconfig/internal/pipeline"
)

const (
	ProcessedFileName = "processed_variables.csv"
	SummaryFileName   = "mb_handler_summary.txt"
	ConfigsDirName    = "configs"
)

// unsafeFileChars matches everything not allowed in a config file name.
var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// WriteOutputs writes all three artifacts for a pipeline result under dir,
// creating it as needed. The processed CSV is semicolon-separated like the
// vendor inputs.
func WriteOutputs(dir string, result *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := writeProcessedCSV(filepath.Join(dir, ProcessedFileName), result); err != nil {
		return err
	}
	if err := WriteConfigs(filepath.Join(dir, ConfigsDirName), result); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, SummaryFileName), []byte(FormatSummary(result.Spans)), 0o644); err != nil {
		return fmt.Errorf("writing handler summary: %w", err)
	}
	return nil
}

func writeProcessedCSV(path string, result *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := csvio.Write(f, result.Columns, result.Rows, ';'); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// WriteConfigs writes one indented JSON file per variable record, named
// after the sanitized variable name.
func WriteConfigs(dir string, result *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating configs directory: %w", err)
	}
	for i, record := range result.Records {
		name := result.Rows[i][pipeline.ColName]
		if name == "" {
			name = "variable"
		}
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding config for %q: %w", name, err)
		}
		path := filepath.Join(dir, SanitizeFileName(name)+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing config for %q: %w", name, err)
		}
	}
	return nil
}

// FormatSummary renders the handler summary text: a total count followed
// by one line per handler with its start address and register length.
func FormatSummary(spans []pipeline.HandlerSpan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Handlers: %d\n", len(spans))
	for _, s := range spans {
		fmt.Fprintf(&b, "Handler %d: start=%d, length=%d\n", s.ID, s.Start, s.Length)
	}
	return b.String()
}

// SanitizeFileName replaces characters that are problematic in file names
// across platforms with underscores.
func SanitizeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}
