package reportsim

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/fieldscout/pkg/logger"
)

// SetupLogging logs to stdout and, when logFile is set, to that file too.
func SetupLogging(logFile string, verbose bool) error {
	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.Init(logger.WithOutput(out)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// DefaultOutputFile names a timestamped report dump.
func DefaultOutputFile(now time.Time) string {
	return "simulated_reports_" + now.Format("20060102_150405") + ".json"
}
