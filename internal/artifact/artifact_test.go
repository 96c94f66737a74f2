package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crimson-sun/presage/internal/dataset/vocab"
	"github.com/crimson-sun/presage/internal/dataset/window"
)

func TestNPYRoundTrip2D(t *testing.T) {
	path := filepath.Join(t.TempDir(), "X.npy")
	data := []int32{0, 1, 2, 3, 4, 5}
	if err := writeNPY(path, []int{2, 3}, data); err != nil {
		t.Fatalf("writeNPY: %v", err)
	}
	shape, got, err := readNPY(path)
	if err != nil {
		t.Fatalf("readNPY: %v", err)
	}
	if len(shape) != 2 || shape[0] != 2 || shape[1] != 3 {
		t.Fatalf("expected shape [2 3], got %v", shape)
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("element %d: expected %d, got %d", i, data[i], got[i])
		}
	}
}

func TestNPYRoundTrip1D(t *testing.T) {
	path := filepath.Join(t.TempDir(), "y.npy")
	if err := writeNPY(path, []int{4}, []int32{7, 8, 9, 10}); err != nil {
		t.Fatalf("writeNPY: %v", err)
	}
	shape, got, err := readNPY(path)
	if err != nil {
		t.Fatalf("readNPY: %v", err)
	}
	if len(shape) != 1 || shape[0] != 4 {
		t.Fatalf("expected shape [4], got %v", shape)
	}
	if got[3] != 10 {
		t.Fatalf("expected final element 10, got %d", got[3])
	}
}

func TestNPYEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.npy")
	if err := writeNPY(path, []int{0, 5}, nil); err != nil {
		t.Fatalf("writeNPY: %v", err)
	}
	shape, data, err := readNPY(path)
	if err != nil {
		t.Fatalf("readNPY: %v", err)
	}
	if shape[0] != 0 || shape[1] != 5 || len(data) != 0 {
		t.Fatalf("expected empty (0, 5) array, got shape %v with %d elements", shape, len(data))
	}
}

func TestNPYHeaderAligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.npy")
	if err := writeNPY(path, []int{1}, []int32{1}); err != nil {
		t.Fatalf("writeNPY: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	// Payload must start on a 64-byte boundary for numpy mmap loading.
	if (len(raw)-4)%64 != 0 {
		t.Fatalf("payload offset %d not 64-aligned", len(raw)-4)
	}
	headerLen := int(raw[8]) | int(raw[9])<<8
	if raw[10+headerLen-1] != '\n' {
		t.Fatal("header not newline-terminated")
	}
}

func TestNPYRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.npy")
	if err := os.WriteFile(path, []byte("not an npy file at all"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := readNPY(path); err == nil {
		t.Fatal("expected error for non-NPY file")
	}
}

func TestNPYShapeMismatch(t *testing.T) {
	if err := writeNPY(filepath.Join(t.TempDir(), "x.npy"), []int{2, 2}, []int32{1, 2, 3}); err == nil {
		t.Fatal("expected error for shape/data mismatch")
	}
}

func TestVocabRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	v := vocab.Build([]string{"/", "/checkout", "/product/1"})
	if err := WriteVocab(path, v); err != nil {
		t.Fatalf("WriteVocab: %v", err)
	}

	loaded, err := LoadVocab(path)
	if err != nil {
		t.Fatalf("LoadVocab: %v", err)
	}
	if loaded.Size() != v.Size() {
		t.Fatalf("size changed: %d vs %d", loaded.Size(), v.Size())
	}
	for _, tok := range v.Tokens() {
		if loaded.Index(loaded.Lookup(tok)) != v.Index(v.Lookup(tok)) {
			t.Fatalf("token %q maps differently after round trip", tok)
		}
	}
}

func TestVocabFileIsInspectable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	v := vocab.Build([]string{"/b", "/a"})
	if err := WriteVocab(path, v); err != nil {
		t.Fatalf("WriteVocab: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(raw)
	// Index order, reserved tokens trailing.
	for _, want := range []string{`"/a": 0`, `"/b": 1`, `"<PAD>": 2`, `"<UNK>": 3`} {
		if !strings.Contains(text, want) {
			t.Fatalf("vocab file missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, `\u003c`) {
		t.Fatalf("reserved tokens were HTML-escaped:\n%s", text)
	}
	if strings.Index(text, "<PAD>") > strings.Index(text, "<UNK>") {
		t.Fatal("reserved tokens out of order in file")
	}
}

func TestLoadVocabRejectsCorruptArtifacts(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"gap in indices", `{"/a": 0, "/b": 2, "<PAD>": 3, "<UNK>": 4}`},
		{"duplicate index", `{"/a": 0, "/b": 0, "<PAD>": 2, "<UNK>": 3}`},
		{"pad misplaced", `{"/a": 0, "<PAD>": 1, "/b": 2, "<UNK>": 3}`},
		{"unk missing", `{"/a": 0, "/b": 1, "<PAD>": 2, "/c": 3}`},
		{"naturals unsorted", `{"/b": 0, "/a": 1, "<PAD>": 2, "<UNK>": 3}`},
		{"not json", `vocab`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "vocab.json")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadVocab(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDatasetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	v := vocab.Build([]string{"/a", "/b", "/c"})

	mk := func(idxs ...int) window.Window {
		w := window.Window{Context: make([]vocab.Token, len(idxs)-1)}
		for i, idx := range idxs[:len(idxs)-1] {
			w.Context[i] = vocab.Natural(idx)
		}
		w.Target = vocab.Natural(idxs[len(idxs)-1])
		return w
	}
	train := []window.Window{mk(0, 1, 2), mk(1, 2, 0), mk(2, 0, 1)}
	val := []window.Window{mk(0, 2, 1)}

	if err := SaveDataset(dir, v, train, val, 2); err != nil {
		t.Fatalf("SaveDataset: %v", err)
	}
	ds, err := LoadDataset(dir)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}

	if ds.WindowSize != 2 {
		t.Fatalf("expected window size 2, got %d", ds.WindowSize)
	}
	if len(ds.TrainContexts) != 3 || len(ds.ValContexts) != 1 {
		t.Fatalf("expected 3/1 rows, got %d/%d", len(ds.TrainContexts), len(ds.ValContexts))
	}
	if ds.TrainContexts[1][0] != 1 || ds.TrainContexts[1][1] != 2 || ds.TrainTargets[1] != 0 {
		t.Fatalf("train row 1 did not round-trip: %v -> %d", ds.TrainContexts[1], ds.TrainTargets[1])
	}
	if ds.ValTargets[0] != 1 {
		t.Fatalf("expected validation target 1, got %d", ds.ValTargets[0])
	}
	if ds.Vocab.NaturalCount() != 3 {
		t.Fatalf("expected 3 natural classes, got %d", ds.Vocab.NaturalCount())
	}
}

func TestDatasetEmptyValidation(t *testing.T) {
	dir := t.TempDir()
	v := vocab.Build([]string{"/a", "/b"})
	train := []window.Window{{
		Context: []vocab.Token{vocab.Natural(0)},
		Target:  vocab.Natural(1),
	}}

	if err := SaveDataset(dir, v, train, nil, 1); err != nil {
		t.Fatalf("SaveDataset: %v", err)
	}
	ds, err := LoadDataset(dir)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if len(ds.ValContexts) != 0 || len(ds.ValTargets) != 0 {
		t.Fatalf("expected empty validation, got %d/%d", len(ds.ValContexts), len(ds.ValTargets))
	}
	if ds.WindowSize != 1 {
		t.Fatalf("expected window size 1, got %d", ds.WindowSize)
	}
}

func TestLoadDatasetRejectsOutOfRangeIndex(t *testing.T) {
	dir := t.TempDir()
	v := vocab.Build([]string{"/a"}) // size 3
	if err := WriteVocab(filepath.Join(dir, "vocab.json"), v); err != nil {
		t.Fatalf("WriteVocab: %v", err)
	}
	// Index 9 is far outside [0, 3).
	if err := writeNPY(filepath.Join(dir, "X_train.npy"), []int{1, 2}, []int32{0, 9}); err != nil {
		t.Fatalf("writeNPY: %v", err)
	}
	if err := writeNPY(filepath.Join(dir, "y_train.npy"), []int{1}, []int32{0}); err != nil {
		t.Fatalf("writeNPY: %v", err)
	}
	if err := writeNPY(filepath.Join(dir, "X_val.npy"), []int{0, 2}, nil); err != nil {
		t.Fatalf("writeNPY: %v", err)
	}
	if err := writeNPY(filepath.Join(dir, "y_val.npy"), []int{0}, nil); err != nil {
		t.Fatalf("writeNPY: %v", err)
	}

	if _, err := LoadDataset(dir); err == nil {
		t.Fatal("expected error for out-of-range dense index")
	}
}

func TestMetricsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "evaluation_results.json")
	metrics := map[string]float64{
		"precision@3": 2.0 / 3.0,
		"recall@3":    2.0 / 3.0,
		"f1@3":        2.0 / 3.0,
		"accuracy":    0.5,
	}
	if err := WriteMetrics(path, metrics); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}
	loaded, err := LoadMetrics(path)
	if err != nil {
		t.Fatalf("LoadMetrics: %v", err)
	}
	if len(loaded) != len(metrics) {
		t.Fatalf("expected %d metrics, got %d", len(metrics), len(loaded))
	}
	for name, v := range metrics {
		if loaded[name] != v {
			t.Fatalf("%s: expected %v, got %v", name, v, loaded[name])
		}
	}
}
