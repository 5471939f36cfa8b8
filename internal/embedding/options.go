package embedding

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultInputName  = "input"
	DefaultOutputName = "output"
	DefaultDimensions = 4096
	DefaultInputSize  = 224
)

// ONNXOptions configures an ONNX-backed extractor.
type ONNXOptions struct {
	ModelPath         string
	SharedLibraryPath string
	InputName         string
	OutputName        string
	Dimensions        int
	Width             int
	Height            int
	Preprocessing     Preprocessing
}

func (o ONNXOptions) withDefaults() ONNXOptions {
	if o.InputName == "" {
		o.InputName = DefaultInputName
	}
	if o.OutputName == "" {
		o.OutputName = DefaultOutputName
	}
	if o.Dimensions == 0 {
		o.Dimensions = DefaultDimensions
	}
	if o.Width == 0 {
		o.Width = DefaultInputSize
	}
	if o.Height == 0 {
		o.Height = DefaultInputSize
	}
	if o.Preprocessing == (Preprocessing{}) {
		o.Preprocessing = VGG16Preprocessing()
	}
	return o
}

func (o ONNXOptions) validate() error {
	if o.ModelPath == "" {
		return errors.New("model path is required")
	}
	if o.Dimensions < 0 || o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("dimensions and input size must be positive")
	}
	return o.Preprocessing.Validate()
}

// Options selects and configures an extractor backend.
type Options struct {
	Backend Backend
	ONNX    ONNXOptions
}

// New builds the extractor named by opts.Backend. There is no silent fallback: an ONNX
// model that cannot be loaded is an ErrModelLoad.
func New(opts Options) (Extractor, error) {
	switch Backend(strings.ToLower(string(opts.Backend))) {
	case BackendONNX, "":
		return NewONNXExtractor(opts.ONNX)
	case BackendMock:
		o := opts.ONNX.withDefaults()
		return NewMockExtractor(o.Dimensions, o.Width, o.Height), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q (supported: onnx, mock)", opts.Backend)
	}
}
