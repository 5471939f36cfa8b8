//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/kagami/internal/errortypes"
	"github.com/hyperjump/kagami/internal/models"
)

// ONNXExtractor runs an image feature model through ONNX Runtime. It requires CGO and the
// onnxruntime shared library.
type ONNXExtractor struct {
	session       *ort.AdvancedSession
	dimensions    int
	width, height int
	pre           Preprocessing
	// Pre-allocated tensors for Run(); we overwrite input data and read output.
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

// NewONNXExtractor loads the model once. Any failure is reported as ErrModelLoad.
func NewONNXExtractor(opts ONNXOptions) (*ONNXExtractor, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, errortypes.ModelLoad(opts.ModelPath, err)
	}
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, errortypes.ModelLoad(opts.ModelPath, err)
	}

	if !ort.IsInitialized() {
		if opts.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(opts.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errortypes.ModelLoad(opts.ModelPath, fmt.Errorf("initialize ONNX runtime: %w", err))
		}
	}

	inputData := make([]float32, 3*opts.Width*opts.Height)
	inputTensor, err := ort.NewTensor(ort.NewShape(opts.Preprocessing.TensorShape(opts.Width, opts.Height)...), inputData)
	if err != nil {
		return nil, errortypes.ModelLoad(opts.ModelPath, fmt.Errorf("create input tensor: %w", err))
	}
	outputData := make([]float32, opts.Dimensions)
	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(opts.Dimensions)), outputData)
	if err != nil {
		inputTensor.Destroy()
		return nil, errortypes.ModelLoad(opts.ModelPath, fmt.Errorf("create output tensor: %w", err))
	}

	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errortypes.ModelLoad(opts.ModelPath, fmt.Errorf("create ONNX session: %w", err))
	}

	return &ONNXExtractor{
		session:      session,
		dimensions:   opts.Dimensions,
		width:        opts.Width,
		height:       opts.Height,
		pre:          opts.Preprocessing,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Extract runs the model on img, which must already be InputSize().
func (e *ONNXExtractor) Extract(ctx context.Context, img image.Image) (models.Embedding, error) {
	if err := checkSize(img, e.width, e.height); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, fmt.Errorf("extractor is closed")
	}
	if err := e.pre.Fill(e.inputTensor.GetData(), img); err != nil {
		return nil, errortypes.InvalidImage("%v", err)
	}
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	raw := make([]float32, e.dimensions)
	copy(raw, e.outputTensor.GetData()[:e.dimensions])
	return NormalizeL2(raw)
}

// Dimensions returns the embedding dimension.
func (e *ONNXExtractor) Dimensions() int {
	return e.dimensions
}

// InputSize returns the model's expected image size.
func (e *ONNXExtractor) InputSize() (int, int) {
	return e.width, e.height
}

// Close destroys the session and tensors.
func (e *ONNXExtractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.inputTensor != nil {
		_ = e.inputTensor.Destroy()
		e.inputTensor = nil
	}
	if e.outputTensor != nil {
		_ = e.outputTensor.Destroy()
		e.outputTensor = nil
	}
	return err
}
