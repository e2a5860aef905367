package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/galaxy/config"
	"github.com/pthm-cable/galaxy/galaxy"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}

	// Every method is a no-op on nil.
	if err := om.WriteGeneration(GenerationRecord{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteParticles("x", galaxy.NewBuffer(1)); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager has a dir")
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for seq := uint64(1); seq <= 3; seq++ {
		if err := om.WriteGeneration(GenerationRecord{Galaxy: "primary", Seq: seq, Status: StatusOK}); err != nil {
			t.Fatalf("WriteGeneration: %v", err)
		}
	}
	if err := om.WriteWindow(WindowStats{Window: 0, Results: 3}); err != nil {
		t.Fatalf("WriteWindow: %v", err)
	}
	if err := om.WritePerf(NewPerfCollector(4).Stats(), 0); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "regenerations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("regenerations.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "galaxy,seq,status") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[0], "radius_p50") {
		t.Errorf("header missing cloud stats columns: %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "primary,3,ok") {
		t.Errorf("last row = %q", lines[3])
	}

	for _, name := range []string{"windows.csv", "perf.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 2 {
			t.Errorf("%s has %d lines, want 2", name, n)
		}
	}
}

func TestOutputManagerParticlesAndConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	buf := galaxy.NewBuffer(2)
	copy(buf.Positions, []float32{1, 2, 3, 4, 5, 6})
	copy(buf.Colors, []float32{1, 0, 0, 0, 0, 1})
	if err := om.WriteParticles("core", buf); err != nil {
		t.Fatalf("WriteParticles: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "particles_core.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || lines[0] != "index,x,y,z,r,g,b" || lines[2] != "1,4,5,6,0,0,1" {
		t.Errorf("particles csv = %q", lines)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}
