package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/ppiankov/deepresearch/internal/model"
)

// Session file names
const (
	RawDataFile        = "raw_research_data.json"
	FinalReportFile    = "final_report.md"
	ChainOfThoughtFile = "chain_of_thought_report.md"
	SourcesFile        = "sources.md"
	DataQualityFile    = "data_quality_issues.md"
	AutoTuningFile     = "auto_tuning_decisions.md"
	CombinedFile       = "combined_report.md"
	ErrorLogFile       = "error_log.txt"
)

// SessionDir returns the directory of a session started at t under root
func SessionDir(root string, t time.Time) string {
	return filepath.Join(root, "session_"+t.Format("20060102_150405"))
}

// WriteSession writes the raw result and every report into dir. Each file is
// attempted; all write failures are returned together.
func WriteSession(dir string, result model.Result, r Reports) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	var errs error
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("marshal research data: %w", err))
	} else {
		errs = multierr.Append(errs, writeFile(dir, RawDataFile, string(data)))
	}

	errs = multierr.Append(errs, writeFile(dir, FinalReportFile, r.Final))
	errs = multierr.Append(errs, writeFile(dir, ChainOfThoughtFile, r.ChainOfThought))
	errs = multierr.Append(errs, writeFile(dir, SourcesFile, r.Sources))
	errs = multierr.Append(errs, writeFile(dir, DataQualityFile, r.DataQuality))
	if r.AutoTuning != "" {
		errs = multierr.Append(errs, writeFile(dir, AutoTuningFile, r.AutoTuning))
	}
	errs = multierr.Append(errs, writeFile(dir, CombinedFile, Combined(result.Query, r)))
	return errs
}

// WriteErrorLog records a failed session
func WriteErrorLog(dir, query string, params string, cause error, at time.Time) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	content := fmt.Sprintf("Error occurred at %s\nQuery: %s\n%s\n\nError message: %v\n",
		at.Format(time.RFC3339), query, params, cause)
	return writeFile(dir, ErrorLogFile, content)
}

func writeFile(dir, name, content string) error {
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// CreateSessionDir creates the directory of a session started at t. When a
// concurrent session already claimed that second, the run id keeps them apart.
func CreateSessionDir(root string, t time.Time, runID string) (string, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	dir := SessionDir(root, t)
	err := os.Mkdir(dir, 0755)
	if errors.Is(err, fs.ErrExist) && runID != "" {
		suffix := runID
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
		dir += "_" + suffix
		err = os.Mkdir(dir, 0755)
	}
	if err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	return dir, nil
}
