package config

import (
	"github.com/voxgate/voxgate/pkg/transcoder"
	"github.com/voxgate/voxgate/pkg/transcoder/ffmpeg"
)

type transcoderConfig struct {
	Command string `yaml:"command"`

	Limit *int `yaml:"limit"`
}

func (cfg *Config) registerTranscoder(f *configFile) error {
	var options []ffmpeg.Option

	if f.Transcoder != nil {
		if f.Transcoder.Command != "" {
			options = append(options, ffmpeg.WithCommand(f.Transcoder.Command))
		}

		if f.Transcoder.Limit != nil {
			options = append(options, ffmpeg.WithLimit(*f.Transcoder.Limit))
		}
	}

	t, err := ffmpeg.New(options...)

	if err != nil {
		return err
	}

	cfg.transcoder = t

	return nil
}

func (cfg *Config) Transcoder() transcoder.Provider {
	return cfg.transcoder
}
