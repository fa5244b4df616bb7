package telemetry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:      SnapshotVersion,
		RNGSeed:      42,
		Step:         150,
		TotalArea:    3.0,
		OccupiedArea: 0.5,
		LAI:          0.02,
		Branches: []BranchState{
			{
				ID:         1,
				X:          0,
				Y:          0,
				Angle:      1.57,
				Length:     1.0,
				Generation: 0,
				Status:     "max_length",
				Leaves: []LeafState{
					{X: 0, Y: 0, Age: 10, LightGain: 0.5},
					{X: 0, Y: 0.2, Age: 8, LightGain: 0.4},
				},
			},
			{
				ID:         2,
				X:          0,
				Y:          1.0,
				Angle:      2.36,
				Length:     0.3,
				Generation: 1,
				Status:     "growing",
			},
		},
		History: []float64{0, 0.1, 0.25},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_150.json" {
		t.Errorf("snapshot filename = %s, want snapshot_150.json", filepath.Base(path))
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Version != snapshot.Version || loaded.RNGSeed != 42 || loaded.Step != 150 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if len(loaded.Branches) != 2 {
		t.Fatalf("branches = %d, want 2", len(loaded.Branches))
	}
	if loaded.Branches[0].Status != "max_length" {
		t.Errorf("status = %q, want max_length", loaded.Branches[0].Status)
	}
	if len(loaded.Branches[0].Leaves) != 2 {
		t.Errorf("leaves = %d, want 2", len(loaded.Branches[0].Leaves))
	}
	if len(loaded.History) != 3 || loaded.History[2] != 0.25 {
		t.Errorf("history = %v", loaded.History)
	}
}

func TestSnapshotJSONFields(t *testing.T) {
	data, err := json.Marshal(&Snapshot{Version: SnapshotVersion})
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"version", "rng_seed", "step", "total_area", "photosynthesis_history"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing JSON key %q", key)
		}
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
