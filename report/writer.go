package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mpbcrawl/models"
)

// DefaultPath builds the timestamped report path inside dir, matching the
// legacy naming scheme (DDMMYYYYHHMM).
func DefaultPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("mpb_products_%s.json", now.Format("020120061504")))
}

// Write stores the report as a single indented JSON document, written once
// at run close. Non-ASCII text is preserved as-is.
func Write(path string, rep *models.RunReport) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(rep); err != nil {
		f.Close()
		return fmt.Errorf("encode report: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}
	return nil
}
