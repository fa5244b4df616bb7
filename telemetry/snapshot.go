package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete tree state at a step boundary, for the
// visualization and reporting collaborators.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Step int `json:"step"`

	TotalArea    float64 `json:"total_area"`
	OccupiedArea float64 `json:"occupied_area"`
	LAI          float64 `json:"lai"`

	Branches []BranchState `json:"branches"`

	// Per-step total photosynthesis since the start of the run
	History []float64 `json:"photosynthesis_history"`
}

// BranchState holds one branch's complete state.
type BranchState struct {
	ID         uint32      `json:"id"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Angle      float64     `json:"angle"`
	Length     float64     `json:"length"`
	Generation int         `json:"generation"`
	Status     string      `json:"status"`
	Leaves     []LeafState `json:"leaves"`
}

// LeafState holds one leaf's state.
type LeafState struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Age       int     `json:"age"`
	LightGain float64 `json:"light_gain"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Step))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
