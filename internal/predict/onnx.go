package predict

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNX scores contexts with a trained next-entity model. The model takes a
// single int64 tensor of shape [batch, windowSize] and returns float32
// scores of shape [batch, C], or [batch, C+2] when it was trained over the
// full vocabulary including the reserved rows, in which case the reserved
// tail is truncated here so the evaluator only ever sees natural classes.
type ONNX struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	windowSize int
	classes    int
	width      int64 // raw model output width: classes or classes+2
}

// NewONNX loads the model and validates its tensor shapes against the
// dataset's window size and class count. The ONNX Runtime shared library is
// expected alongside the model file.
func NewONNX(modelPath string, windowSize, classes int) (*ONNX, error) {
	if err := validateClasses(classes); err != nil {
		return nil, err
	}
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 input tensor, model has %d", len(inputs))
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 output tensor, model has %d", len(outputs))
	}

	inDims := inputs[0].Dimensions
	if len(inDims) != 2 {
		return nil, fmt.Errorf("onnx: expected 2-D input tensor, got %v", inDims)
	}
	if inDims[1] > 0 && int(inDims[1]) != windowSize {
		return nil, fmt.Errorf("onnx: model wants contexts of %d tokens, dataset window size is %d", inDims[1], windowSize)
	}

	outDims := outputs[0].Dimensions
	if len(outDims) != 2 {
		return nil, fmt.Errorf("onnx: expected 2-D output tensor, got %v", outDims)
	}
	width := outDims[1]
	if width <= 0 {
		return nil, fmt.Errorf("onnx: model output width is dynamic, expected %d or %d", classes, classes+2)
	}
	if int(width) != classes && int(width) != classes+2 {
		return nil, fmt.Errorf("onnx: model scores %d classes, vocabulary has %d natural (+2 reserved)", width, classes)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNX{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		windowSize: windowSize,
		classes:    classes,
		width:      width,
	}, nil
}

// Scores runs one batched inference call over the given contexts.
func (o *ONNX) Scores(ctx context.Context, contexts [][]int) ([][]float64, error) {
	if len(contexts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := int64(len(contexts))
	flat := make([]int64, 0, len(contexts)*o.windowSize)
	for i, c := range contexts {
		if len(c) != o.windowSize {
			return nil, fmt.Errorf("onnx: context %d has %d tokens, model wants %d", i, len(c), o.windowSize)
		}
		for _, idx := range c {
			flat = append(flat, int64(idx))
		}
	}

	tIn, err := ort.NewTensor(ort.NewShape(batch, int64(o.windowSize)), flat)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(batch, o.width))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := o.session.Run([]ort.Value{tIn}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	raw := tOut.GetData()
	out := make([][]float64, len(contexts))
	for i := range contexts {
		row := make([]float64, o.classes)
		base := i * int(o.width)
		// Truncating to classes drops any reserved-row scores.
		for j := 0; j < o.classes; j++ {
			row[j] = float64(raw[base+j])
		}
		out[i] = row
	}
	return out, nil
}

// Classes returns the natural class count the scores range over.
func (o *ONNX) Classes() int { return o.classes }

// Close releases the ONNX session resources.
func (o *ONNX) Close() error {
	return o.session.Destroy()
}
