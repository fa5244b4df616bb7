package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/bush/config"
)

// StepRecord is one row of the per-step photosynthesis series.
type StepRecord struct {
	Step           int     `csv:"step"`
	Photosynthesis float64 `csv:"photosynthesis"`
	LAI            float64 `csv:"lai"`
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir        string
	growthFile *os.File
	seriesFile *os.File

	// Track if headers have been written
	growthHeaderWritten bool
	seriesHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "growth.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating growth.csv: %w", err)
	}
	om.growthFile = f

	f, err = os.Create(filepath.Join(dir, "photosynthesis.csv"))
	if err != nil {
		om.growthFile.Close()
		return nil, fmt.Errorf("creating photosynthesis.csv: %w", err)
	}
	om.seriesFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats writes a window stats record to growth.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}

	records := []WindowStats{stats}

	if !om.growthHeaderWritten {
		if err := gocsv.Marshal(records, om.growthFile); err != nil {
			return fmt.Errorf("writing growth stats: %w", err)
		}
		om.growthHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.growthFile); err != nil {
			return fmt.Errorf("writing growth stats: %w", err)
		}
	}

	return nil
}

// WriteStep writes one row of the per-step photosynthesis series.
func (om *OutputManager) WriteStep(rec StepRecord) error {
	if om == nil {
		return nil
	}

	records := []StepRecord{rec}

	if !om.seriesHeaderWritten {
		if err := gocsv.Marshal(records, om.seriesFile); err != nil {
			return fmt.Errorf("writing photosynthesis series: %w", err)
		}
		om.seriesHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.seriesFile); err != nil {
			return fmt.Errorf("writing photosynthesis series: %w", err)
		}
	}

	return nil
}

// WriteSnapshot saves the final tree snapshot under the output directory.
func (om *OutputManager) WriteSnapshot(snapshot *Snapshot) (string, error) {
	if om == nil {
		return "", nil
	}
	return SaveSnapshot(snapshot, om.dir)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.growthFile != nil {
		if err := om.growthFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.seriesFile != nil {
		if err := om.seriesFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
