package plotting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/relab/experimenttools/metric"
	"github.com/relab/experimenttools/plotting"
)

func TestSaveWritesArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.png")
	curve := metric.Curve{
		Name:   "m0",
		XLabel: "Iteration",
		X:      []float64{0, 1, 2},
		Y:      []float64{1, 4, 9},
	}

	if err := plotting.Save(path, curve); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("artifact is empty")
	}
}

func TestSaveWithoutCurves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.png")
	if err := plotting.Save(path); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestReadSerialized(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"m0.txt": "value\n0\n1\n4\n",
		"m1.txt": "time,value\n0,10\n0.5,20\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	curves, err := plotting.ReadSerialized(dir)
	if err != nil {
		t.Fatalf("ReadSerialized() returned error: %v", err)
	}

	want := []metric.Curve{
		{Name: "m0", XLabel: "Iteration", X: []float64{0, 1, 2}, Y: []float64{0, 1, 4}},
		{Name: "m1", XLabel: "Seconds", X: []float64{0, 0.5}, Y: []float64{10, 20}},
	}
	if diff := cmp.Diff(want, curves); diff != "" {
		t.Errorf("curves mismatch (-want +got):\n%s", diff)
	}
}
