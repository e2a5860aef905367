package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/galaxy/config"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the parameters of every galaxy in the scene, enough to
// regenerate the same view with the same seed.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    int64  `json:"seed"`
	Frame   int64  `json:"frame"`
	Label   string `json:"label,omitempty"`

	Galaxies []GalaxyState `json:"galaxies"`
}

// GalaxyState holds one galaxy's parameters and the shape of its current cloud.
type GalaxyState struct {
	Config config.GalaxyConfig `json:"config"`
	Seq    uint64              `json:"seq"`
	State  string              `json:"state"`
	Stats  CloudStats          `json:"stats"`
}

// Configs returns the galaxy entries of the snapshot in scene order.
func (s *Snapshot) Configs() []config.GalaxyConfig {
	out := make([]config.GalaxyConfig, len(s.Galaxies))
	for i, g := range s.Galaxies {
		out[i] = g.Config
	}
	return out
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Frame)
	if snapshot.Label != "" {
		sanitized := strings.ReplaceAll(snapshot.Label, " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Frame, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

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
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
