package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/crimson-sun/presage/internal/dataset/vocab"
	"github.com/crimson-sun/presage/internal/dataset/window"
)

// File names inside a dataset directory, matching what the downstream
// trainer expects to np.load.
const (
	trainContextsFile = "X_train.npy"
	trainTargetsFile  = "y_train.npy"
	valContextsFile   = "X_val.npy"
	valTargetsFile    = "y_val.npy"
	vocabFile         = "vocab.json"
)

// Dataset is a windowed dataset loaded back from disk, in dense-index form.
type Dataset struct {
	Vocab         *vocab.Vocabulary
	WindowSize    int
	TrainContexts [][]int
	TrainTargets  []int
	ValContexts   [][]int
	ValTargets    []int
}

// SaveDataset writes the train and validation windows plus the vocabulary
// into dir, creating it if needed.
func SaveDataset(dir string, v *vocab.Vocabulary, train, validation []window.Window, windowSize int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("artifact: dataset: %w", err)
	}
	if err := saveWindows(dir, trainContextsFile, trainTargetsFile, v, train, windowSize); err != nil {
		return err
	}
	if err := saveWindows(dir, valContextsFile, valTargetsFile, v, validation, windowSize); err != nil {
		return err
	}
	return WriteVocab(filepath.Join(dir, vocabFile), v)
}

func saveWindows(dir, contextsName, targetsName string, v *vocab.Vocabulary, ws []window.Window, windowSize int) error {
	contexts := make([]int32, 0, len(ws)*windowSize)
	targets := make([]int32, 0, len(ws))
	for _, w := range ws {
		for _, tok := range w.Context {
			contexts = append(contexts, int32(v.Index(tok)))
		}
		targets = append(targets, int32(v.Index(w.Target)))
	}
	if err := writeNPY(filepath.Join(dir, contextsName), []int{len(ws), windowSize}, contexts); err != nil {
		return err
	}
	return writeNPY(filepath.Join(dir, targetsName), []int{len(ws)}, targets)
}

// LoadDataset reads a dataset directory back, validating array shapes
// against each other and every dense index against the vocabulary size.
func LoadDataset(dir string) (*Dataset, error) {
	v, err := LoadVocab(filepath.Join(dir, vocabFile))
	if err != nil {
		return nil, err
	}

	trainContexts, trainW, err := loadContexts(filepath.Join(dir, trainContextsFile), v)
	if err != nil {
		return nil, err
	}
	valContexts, valW, err := loadContexts(filepath.Join(dir, valContextsFile), v)
	if err != nil {
		return nil, err
	}
	windowSize := trainW
	if windowSize == 0 {
		windowSize = valW
	}
	if trainW != 0 && valW != 0 && trainW != valW {
		return nil, fmt.Errorf("artifact: dataset: train window size %d disagrees with validation %d", trainW, valW)
	}

	trainTargets, err := loadTargets(filepath.Join(dir, trainTargetsFile), v, len(trainContexts))
	if err != nil {
		return nil, err
	}
	valTargets, err := loadTargets(filepath.Join(dir, valTargetsFile), v, len(valContexts))
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Vocab:         v,
		WindowSize:    windowSize,
		TrainContexts: trainContexts,
		TrainTargets:  trainTargets,
		ValContexts:   valContexts,
		ValTargets:    valTargets,
	}, nil
}

func loadContexts(path string, v *vocab.Vocabulary) (contexts [][]int, windowSize int, err error) {
	shape, flat, err := readNPY(path)
	if err != nil {
		return nil, 0, err
	}
	if len(shape) != 2 {
		return nil, 0, fmt.Errorf("artifact: %s: expected 2-D contexts, got shape %v", path, shape)
	}
	rows, cols := shape[0], shape[1]
	contexts = make([][]int, rows)
	for i := 0; i < rows; i++ {
		row := make([]int, cols)
		for j := 0; j < cols; j++ {
			idx := int(flat[i*cols+j])
			if idx < 0 || idx >= v.Size() {
				return nil, 0, fmt.Errorf("artifact: %s: row %d holds index %d outside [0, %d)", path, i, idx, v.Size())
			}
			row[j] = idx
		}
		contexts[i] = row
	}
	if rows == 0 {
		cols = 0
	}
	return contexts, cols, nil
}

func loadTargets(path string, v *vocab.Vocabulary, wantRows int) ([]int, error) {
	shape, flat, err := readNPY(path)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return nil, fmt.Errorf("artifact: %s: expected 1-D targets, got shape %v", path, shape)
	}
	if shape[0] != wantRows {
		return nil, fmt.Errorf("artifact: %s: %d targets for %d contexts", path, shape[0], wantRows)
	}
	targets := make([]int, len(flat))
	for i, raw := range flat {
		idx := int(raw)
		if idx < 0 || idx >= v.Size() {
			return nil, fmt.Errorf("artifact: %s: target %d holds index %d outside [0, %d)", path, i, idx, v.Size())
		}
		targets[i] = idx
	}
	return targets, nil
}
