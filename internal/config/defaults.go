package config

import "github.com/hyperjump/kagami/internal/embedding"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Store.FeatureDir == "" {
		cfg.Store.FeatureDir = "./static/feature"
	}
	if cfg.Store.ImageDir == "" {
		cfg.Store.ImageDir = "./static/img"
	}
	if cfg.Store.CatalogPath == "" {
		cfg.Store.CatalogPath = "./static/catalog.db"
	}
	if cfg.Store.ImageExtensions == nil {
		cfg.Store.ImageExtensions = []string{".jpg", ".jpeg", ".png"}
	}

	vgg := embedding.VGG16Preprocessing()
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = string(embedding.BackendONNX)
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./models/vgg16_fc1.onnx"
	}
	if cfg.Embedding.InputName == "" {
		cfg.Embedding.InputName = embedding.DefaultInputName
	}
	if cfg.Embedding.OutputName == "" {
		cfg.Embedding.OutputName = embedding.DefaultOutputName
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = embedding.DefaultDimensions
	}
	if cfg.Embedding.InputWidth == 0 {
		cfg.Embedding.InputWidth = embedding.DefaultInputSize
	}
	if cfg.Embedding.InputHeight == 0 {
		cfg.Embedding.InputHeight = embedding.DefaultInputSize
	}
	if cfg.Embedding.Layout == "" {
		cfg.Embedding.Layout = string(vgg.Layout)
	}
	if cfg.Embedding.ChannelOrder == "" {
		cfg.Embedding.ChannelOrder = string(vgg.ChannelOrder)
	}
	if cfg.Embedding.Scale == 0 {
		cfg.Embedding.Scale = vgg.Scale
	}
	if cfg.Embedding.Mean == nil {
		cfg.Embedding.Mean = vgg.Mean[:]
	}
	if cfg.Embedding.Std == nil {
		cfg.Embedding.Std = vgg.Std[:]
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 128
	}

	if cfg.Search.ScoreLimit == 0 {
		cfg.Search.ScoreLimit = 30
	}
	if cfg.Search.RelevantLimit == 0 {
		cfg.Search.RelevantLimit = 10
	}

	if cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 400
	}
}
