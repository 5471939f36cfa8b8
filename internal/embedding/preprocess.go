package embedding

import (
	"fmt"
	"image"
	"strings"
)

// ChannelOrder is the order color channels are written into the input tensor.
type ChannelOrder string

// Layout is the memory layout of the input tensor.
type Layout string

const (
	ChannelsRGB ChannelOrder = "rgb"
	ChannelsBGR ChannelOrder = "bgr"

	LayoutNCHW Layout = "nchw"
	LayoutNHWC Layout = "nhwc"
)

// Preprocessing is the fixed pixel contract of a model. For every pixel p in [0, 255] and
// output channel c the tensor value is (p*Scale - Mean[c]) / Std[c]. Mean and Std are indexed
// in output channel order, so for BGR Mean[0] applies to blue.
type Preprocessing struct {
	ChannelOrder ChannelOrder
	Layout       Layout
	Scale        float32
	Mean         [3]float32
	Std          [3]float32
}

// VGG16Preprocessing is the Keras "caffe" contract used by VGG-family feature extractors:
// BGR, no scaling, ImageNet mean subtraction, no variance normalization.
func VGG16Preprocessing() Preprocessing {
	return Preprocessing{
		ChannelOrder: ChannelsBGR,
		Layout:       LayoutNHWC,
		Scale:        1,
		Mean:         [3]float32{103.939, 116.779, 123.68},
		Std:          [3]float32{1, 1, 1},
	}
}

// UnitScalePreprocessing maps pixels to [0, 1] in RGB, NCHW order.
func UnitScalePreprocessing() Preprocessing {
	return Preprocessing{
		ChannelOrder: ChannelsRGB,
		Layout:       LayoutNCHW,
		Scale:        1.0 / 255.0,
		Std:          [3]float32{1, 1, 1},
	}
}

// Validate checks the contract is usable.
func (p Preprocessing) Validate() error {
	switch ChannelOrder(strings.ToLower(string(p.ChannelOrder))) {
	case ChannelsRGB, ChannelsBGR:
	default:
		return fmt.Errorf("unknown channel order %q (supported: rgb, bgr)", p.ChannelOrder)
	}
	switch Layout(strings.ToLower(string(p.Layout))) {
	case LayoutNCHW, LayoutNHWC:
	default:
		return fmt.Errorf("unknown tensor layout %q (supported: nchw, nhwc)", p.Layout)
	}
	if p.Scale == 0 {
		return fmt.Errorf("scale must be non-zero")
	}
	for c, s := range p.Std {
		if s == 0 {
			return fmt.Errorf("std[%d] must be non-zero", c)
		}
	}
	return nil
}

// TensorShape returns the 4-D input shape for a single image of width x height.
func (p Preprocessing) TensorShape(width, height int) []int64 {
	if Layout(strings.ToLower(string(p.Layout))) == LayoutNHWC {
		return []int64{1, int64(height), int64(width), 3}
	}
	return []int64{1, 3, int64(height), int64(width)}
}

// Fill writes img into dst following the contract. dst must hold 3*width*height values.
func (p Preprocessing) Fill(dst []float32, img image.Image) error {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if len(dst) != 3*w*h {
		return fmt.Errorf("tensor has %d values, image needs %d", len(dst), 3*w*h)
	}
	bgr := ChannelOrder(strings.ToLower(string(p.ChannelOrder))) == ChannelsBGR
	nhwc := Layout(strings.ToLower(string(p.Layout))) == LayoutNHWC
	plane := w * h
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			px := [3]float32{float32(r >> 8), float32(g >> 8), float32(bl >> 8)}
			if bgr {
				px[0], px[2] = px[2], px[0]
			}
			for c := 0; c < 3; c++ {
				v := (px[c]*p.Scale - p.Mean[c]) / p.Std[c]
				if nhwc {
					dst[(y*w+x)*3+c] = v
				} else {
					dst[c*plane+y*w+x] = v
				}
			}
		}
	}
	return nil
}
